package levels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLevel(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		ok     bool
		crates int
		goals  int
		notes  int
	}{
		{"simple", "#####\n#@$.#\n#####", true, 1, 1, 0},
		{"crate on goal counts as goal", "#####\n#@*.#\n#####", true, 1, 2, 1},
		{"no crates", "###\n#@#\n###", true, 0, 0, 1},
		{"more crates than goals", "######\n#@$$.#\n######", false, 2, 1, 0},
		{"no hero", "#####\n# $.#\n#####", false, 0, 0, 0},
		{"two heroes", "#####\n#@@$.#\n#####", false, 0, 0, 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			report := ValidateLevel(test.text)
			assert.Equal(t, test.ok, report.OK(), "issues: %v", report.Issues)
			assert.Equal(t, test.crates, report.Crates)
			assert.Equal(t, test.goals, report.Goals)
			assert.Len(t, report.Notes, test.notes)
		})
	}
}

func TestValidateLevel_ParseErrorIsKept(t *testing.T) {
	report := ValidateLevel("#####\n#  .#\n#####")
	require.Error(t, report.Err)
	assert.True(t, IsParseError(report.Err))
	assert.False(t, IsParseError(nil))
}

func TestValidateLevel_Dimensions(t *testing.T) {
	report := ValidateLevel("#######\n#+ $  #\n#  *  #\n#  $  #\n# .   #\n#######")
	assert.Equal(t, 7, report.Width)
	assert.Equal(t, 6, report.Height)
	assert.Equal(t, 3, report.Crates)
	assert.Equal(t, 3, report.Goals)
	assert.Equal(t, 22, report.Walls)
}

func TestValidatePack(t *testing.T) {
	tests := []struct {
		name    string
		pack    *Pack
		wantErr bool
	}{
		{
			name: "valid",
			pack: &Pack{ID: "ok", Name: "OK", Levels: []LevelDef{{Title: "a", Map: "#####\n#@$.#\n#####"}}},
		},
		{
			name:    "missing name",
			pack:    &Pack{ID: "x", Levels: []LevelDef{{Map: "#####\n#@$.#\n#####"}}},
			wantErr: true,
		},
		{
			name:    "no levels",
			pack:    &Pack{ID: "x", Name: "X"},
			wantErr: true,
		},
		{
			name:    "bad level",
			pack:    &Pack{ID: "x", Name: "X", Levels: []LevelDef{{Title: "bad", Map: "#####\n#$$.#\n#####"}}},
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := ValidatePack(test.pack)
			if test.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPack)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePackLevels(t *testing.T) {
	pack := &Pack{ID: "p", Name: "P", Levels: []LevelDef{
		{Title: "good", Map: "#####\n#@$.#\n#####"},
		{Title: "bad", Map: "#####\n# $.#\n#####"},
	}}

	reports := ValidatePackLevels(pack)
	require.Len(t, reports, 2)
	assert.Equal(t, 1, reports[0].Number)
	assert.True(t, reports[0].OK())
	assert.Equal(t, "bad", reports[1].Title)
	assert.False(t, reports[1].OK())
}

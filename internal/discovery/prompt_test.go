package discovery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/baing/baing/internal/media"
)

func TestBuildInstructionDeterministic(t *testing.T) {
	h := History{"liked": "Inception (2010)", "disliked": "Cats (2019)"}
	for _, kind := range media.Kinds() {
		a := BuildInstruction(kind, 7, "space operas", h)
		b := BuildInstruction(kind, 7, "space operas", h)
		assert.Equal(t, a, b, kind)
	}
}

func TestBuildInstructionSections(t *testing.T) {
	in := BuildInstruction(media.KindMovie, 3, "", History{"liked": "Inception (2010)"})

	assert.Equal(t, systemDirective, in.System)
	assert.Contains(t, in.User, "Recommend exactly 3 movies.")
	assert.Contains(t, in.User, `"movies"`)
	assert.Contains(t, in.User, `"baing_meta"`)
	assert.Contains(t, in.User, "Titles they liked: Inception (2010)\n")
	assert.Contains(t, in.User, "Titles they disliked: \n")
	assert.Contains(t, in.User, "Titles they skipped: \n")
	assert.Contains(t, in.User, "never recommend any title listed above")
	assert.NotContains(t, in.User, "The user asked for")
}

func TestBuildInstructionGuidance(t *testing.T) {
	in := BuildInstruction(media.KindTvShow, 2, "  slow Nordic\tnoir ", nil)

	assert.Contains(t, in.User, "The user asked for:   slow Nordic\tnoir \n")
	assert.Contains(t, in.User, `"tv_shows"`)
	assert.Contains(t, in.User, `"first_air_date"`)
	assert.Less(t, strings.Index(in.User, "The user asked for"), strings.Index(in.User, "Titles they disliked"))

	blank := BuildInstruction(media.KindTvShow, 2, " \t ", nil)
	assert.NotContains(t, blank.User, "The user asked for")
}

func TestBuildInstructionFieldPerKind(t *testing.T) {
	tests := map[media.Kind]string{
		media.KindMovie:         `"movies"`,
		media.KindTvShow:        `"tv_shows"`,
		media.KindYTChannel:     `"yt_channels"`,
		media.KindOnlineContent: `"online_content"`,
	}
	for kind, field := range tests {
		assert.Contains(t, BuildInstruction(kind, 1, "", nil).User, field, kind)
	}
}

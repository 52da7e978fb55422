package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermSequenceCurrent(t *testing.T) {
	tests := []struct {
		name    string
		seq     TermSequence
		want    string
		wantErr error
	}{
		{name: "empty", seq: nil, wantErr: ErrNoActiveTerm},
		{name: "single", seq: TermSequence{"2024A"}, want: "2024A"},
		{name: "last wins", seq: TermSequence{"2024A", "2024B", "2025A"}, want: "2025A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.seq.Current()
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTermSequenceAppended(t *testing.T) {
	seq := TermSequence{"2024A"}

	next, err := seq.Appended("2024B")
	require.NoError(t, err)
	assert.Equal(t, TermSequence{"2024A", "2024B"}, next)
	// the receiver is left untouched
	assert.Equal(t, TermSequence{"2024A"}, seq)

	_, err = next.Appended("2024A")
	assert.Equal(t, KindStateConflict, Kind(err))

	_, err = next.Appended("  ")
	assert.Equal(t, KindInvalidInput, Kind(err))

	// length never decreases across appends
	cur, err := next.Current()
	require.NoError(t, err)
	assert.Equal(t, "2024B", cur)
	assert.Len(t, next, 2)
}

func TestKind(t *testing.T) {
	assert.Equal(t, KindNotFound, Kind(NewNotFoundError("nope")))
	assert.Equal(t, KindForbidden, Kind(NewForbiddenError("no")))
	assert.Equal(t, KindPrerequisiteUnsatisfied, Kind(&PrerequisiteError{Reason: PrerequisiteIncomplete, SubjectCode: "alg", Term: "T1"}))
	assert.Equal(t, KindUnknown, Kind(nil))
}

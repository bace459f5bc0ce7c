package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{name: "not found matches sentinel", err: NotFound("kiln %s", "k1"), target: ErrNotFound, want: true},
		{name: "bad request does not match not found", err: BadRequest("x"), target: ErrNotFound, want: false},
		{name: "wrapped with fmt still matches", err: fmt.Errorf("load: %w", Conflict("dup")), target: ErrConflict, want: true},
		{name: "plain error never matches", err: errors.New("boom"), target: ErrBadRequest, want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, errors.Is(tc.err, tc.target))
		})
	}
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Code(""), CodeOf(nil))
	assert.Equal(t, CodeNotFound, CodeOf(NotFound("firing")))
	assert.Equal(t, CodeBadRequest, CodeOf(fmt.Errorf("outer: %w", BadRequest("inner"))))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("db down")))
}

func TestWrap(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Wrap(CodeInternal, nil, "ignored"))

	cause := errors.New("disk full")
	err := Wrap(CodeInternal, cause, "save snapshot")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "INTERNAL: save snapshot: disk full", err.Error())
	assert.Equal(t, "NOT_FOUND", ErrNotFound.Error())
}

package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult_Ok(t *testing.T) {
	r := Ok(3)

	assert.True(t, r.OK())
	assert.False(t, r.Failed())
	assert.Equal(t, KindNone, r.Kind)

	v, err := r.Unwrap()
	assert.Equal(t, 3, v)
	assert.NoError(t, err)
}

func TestResult_FailCarriesNeutralValue(t *testing.T) {
	cause := NewError(KindUpstream, "index.search", errors.New("timeout"))
	r := Fail([]SearchHit{}, cause)

	assert.True(t, r.Failed())
	assert.Equal(t, KindUpstream, r.Kind)
	assert.NotNil(t, r.Value)
	assert.Empty(t, r.Value)
	assert.ErrorIs(t, r.Err, cause)
}

func TestResult_EmptyIsNotFailure(t *testing.T) {
	r := Ok([]IndexedDocument{})

	assert.True(t, r.OK())
	assert.Empty(t, r.Value)
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringSlice_Scan(t *testing.T) {
	var s StringSlice
	require.NoError(t, s.Scan([]byte(`["physics","history"]`)))
	assert.Equal(t, StringSlice{"physics", "history"}, s)

	require.NoError(t, s.Scan(nil))
	assert.Equal(t, StringSlice{}, s)

	require.NoError(t, s.Scan("null"))
	assert.Equal(t, StringSlice{}, s)

	assert.Error(t, s.Scan(42))
}

func TestStringSlice_ValueNil(t *testing.T) {
	v, err := StringSlice(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestQuestionList_ScanKeepsOptionalFields(t *testing.T) {
	var q QuestionList
	require.NoError(t, q.Scan([]byte(`[
		{"id":"1","question":"q","options":["a","b"],"correctAnswer":"a","userAnswer":"b","isCorrect":false},
		{"id":"2","question":"q2","options":["c","d"],"correctAnswer":"d"}]`)))
	require.Len(t, q, 2)
	require.NotNil(t, q[0].UserAnswer)
	assert.Equal(t, "b", *q[0].UserAnswer)
	assert.False(t, *q[0].IsCorrect)
	assert.Nil(t, q[1].UserAnswer)
	assert.Nil(t, q[1].IsCorrect)
	assert.Equal(t, []string{"c", "d"}, q[1].Options)
}

package homework

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubmission_apply(t *testing.T) {
	first := time.Date(2023, time.May, 1, 9, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	var s Submission
	s.apply("", "", first)
	assert.Nil(t, s.SubmittedAt)

	s.apply("", "homeworks/a.pdf", first)
	if assert.NotNil(t, s.SubmittedAt) {
		assert.Equal(t, first, *s.SubmittedAt)
	}

	s.apply("answer", "", later)
	assert.Equal(t, first, *s.SubmittedAt)
	assert.Equal(t, "answer", s.SubmittedText)
	assert.Equal(t, "homeworks/a.pdf", s.SubmittedFile)
}

func TestValidMark(t *testing.T) {
	for mark := -1; mark <= 7; mark++ {
		assert.Equal(t, mark >= 1 && mark <= 5, validMark(mark), "mark %d", mark)
	}
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuizQuestionOptionList(t *testing.T) {
	q := QuizQuestion{Options: "Paris, London ,Berlin"}
	assert.Equal(t, []string{"Paris", "London", "Berlin"}, q.OptionList())

	empty := QuizQuestion{}
	assert.Nil(t, empty.OptionList())
}

func TestQuizQuestionHasOption(t *testing.T) {
	q := QuizQuestion{Options: "Paris,London,Berlin"}
	assert.True(t, q.HasOption("paris"))
	assert.True(t, q.HasOption(" London "))
	assert.False(t, q.HasOption("Madrid"))
}

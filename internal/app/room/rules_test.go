package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitarena/internal/app/store"
	"bitarena/internal/pkg/errs"
)

func TestMinParticipants(t *testing.T) {
	assert.Equal(t, 2, MinParticipants(2))
	assert.Equal(t, 3, MinParticipants(5))
	assert.Equal(t, 6, MinParticipants(10))
	assert.Equal(t, 2, MinParticipants(7))
}

func TestMaxWinners(t *testing.T) {
	assert.Equal(t, 1, MaxWinners(2))
	assert.Equal(t, 2, MaxWinners(5))
	assert.Equal(t, 3, MaxWinners(10))
	assert.Equal(t, 1, MaxWinners(42))
}

func TestQuestionDifficulty(t *testing.T) {
	assert.Equal(t, "EASY", QuestionDifficulty("easy"))
	assert.Equal(t, "MEDIUM", QuestionDifficulty("medium"))
	assert.Equal(t, "HARD", QuestionDifficulty("hard"))
}

func validInput() CreateInput {
	return CreateInput{
		Topic:      "ARRAY",
		Difficulty: "easy",
		TimeLimit:  10,
		Capacity:   2,
		Visibility: store.VisibilityPublic,
	}
}

func TestValidateCreateInputDefaults(t *testing.T) {
	input := CreateInput{Topic: "ARRAY", Difficulty: "easy", TimeLimit: 10}
	require.Nil(t, ValidateCreateInput(&input))

	assert.Equal(t, 2, input.Capacity)
	assert.Equal(t, store.VisibilityPublic, input.Visibility)
}

func TestValidateCreateInputRejections(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*CreateInput)
		wantCode int
	}{
		{"missing topic", func(i *CreateInput) { i.Topic = "" }, errs.ErrInvalidParams},
		{"missing difficulty", func(i *CreateInput) { i.Difficulty = "" }, errs.ErrInvalidParams},
		{"unknown difficulty", func(i *CreateInput) { i.Difficulty = "brutal" }, errs.ErrInvalidRoomConfig},
		{"capacity below two", func(i *CreateInput) { i.Capacity = 1 }, errs.ErrInvalidRoomConfig},
		{"unknown visibility", func(i *CreateInput) { i.Visibility = "secret" }, errs.ErrInvalidRoomConfig},
		{"private without password", func(i *CreateInput) { i.Visibility = store.VisibilityPrivate }, errs.ErrInvalidRoomConfig},
		{"negative time limit", func(i *CreateInput) { i.TimeLimit = -1 }, errs.ErrInvalidRoomConfig},
		{"unranked unlimited", func(i *CreateInput) { i.TimeLimit = 0; i.IsRanked = false }, errs.ErrInvalidRoomConfig},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)

			customErr := ValidateCreateInput(&input)
			require.NotNil(t, customErr)
			assert.Equal(t, tc.wantCode, customErr.Code)
		})
	}
}

func TestValidateCreateInputRankedMayRunUnlimited(t *testing.T) {
	input := validInput()
	input.IsRanked = true
	input.TimeLimit = 0

	assert.Nil(t, ValidateCreateInput(&input))
}

func TestValidateCreateInputPrivateWithPassword(t *testing.T) {
	input := validInput()
	input.Visibility = store.VisibilityPrivate
	input.Password = "hunter2"

	assert.Nil(t, ValidateCreateInput(&input))
}

func TestAllReadyIgnoresHostAndNonJoined(t *testing.T) {
	participants := []*store.Participant{
		{Username: "alice", Role: store.RoleHost, Status: store.ParticipantJoined, Ready: false},
		{Username: "bob", Role: store.RoleParticipant, Status: store.ParticipantJoined, Ready: true},
		{Username: "carol", Role: store.RoleParticipant, Status: store.ParticipantLeft, Ready: false},
	}

	assert.True(t, allReady(participants))

	participants = append(participants, &store.Participant{
		Username: "dave", Role: store.RoleParticipant, Status: store.ParticipantJoined, Ready: false,
	})
	assert.False(t, allReady(participants))
}

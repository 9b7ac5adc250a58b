package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
	"github.com/typeflow-app/typeflow-backend/internal/domain/user"
)

func TestUpdateProfile_ChangesOnlyProvidedFields(t *testing.T) {
	existing, err := user.New("speedster", "old@example.com", "hash")
	assert.NoError(t, err)
	users := newFakeUserRepo(existing)
	handler := NewUpdateProfileHandler(users)

	name := "Dana K."
	updated, err := handler.Handle(context.Background(), UpdateProfileCommand{
		UserID:   existing.ID,
		FullName: &name,
	})

	assert.NoError(t, err)
	assert.Equal(t, "Dana K.", updated.FullName)
	assert.Equal(t, user.Email("old@example.com"), updated.Email)
}

func TestUpdateProfile_ReplacesSettings(t *testing.T) {
	existing, err := user.New("speedster", "s@example.com", "hash")
	assert.NoError(t, err)
	handler := NewUpdateProfileHandler(newFakeUserRepo(existing))

	settings := user.Settings{Theme: "dark", KeyboardLayout: "colemak", ShowLiveWPM: true}
	updated, err := handler.Handle(context.Background(), UpdateProfileCommand{
		UserID:   existing.ID,
		Settings: &settings,
	})

	assert.NoError(t, err)
	assert.Equal(t, settings, updated.Settings)
}

func TestUpdateProfile_EmptyCommandRejected(t *testing.T) {
	handler := NewUpdateProfileHandler(newFakeUserRepo())

	_, err := handler.Handle(context.Background(), UpdateProfileCommand{UserID: "u-1"})

	assert.Error(t, err)
}

func TestUpdateProfile_UnknownUser(t *testing.T) {
	handler := NewUpdateProfileHandler(newFakeUserRepo())

	name := "Nobody"
	_, err := handler.Handle(context.Background(), UpdateProfileCommand{UserID: "missing", FullName: &name})

	assert.ErrorIs(t, err, shared.ErrUserNotFound)
}

func TestCreateText_Success(t *testing.T) {
	texts := newFakeTextRepo()
	handler := NewCreateTextHandler(texts)

	created, err := handler.Handle(context.Background(), CreateTextCommand{
		Title:      "home row drill",
		Content:    "asdf jkl; asdf jkl;",
		Difficulty: "beginner",
	})

	assert.NoError(t, err)
	assert.Equal(t, 19, created.CharacterCount)
	assert.Equal(t, 4, created.WordCount)
	assert.Contains(t, texts.texts, created.ID)
}

func TestCreateText_RequiresTitleAndContent(t *testing.T) {
	handler := NewCreateTextHandler(newFakeTextRepo())

	_, err := handler.Handle(context.Background(), CreateTextCommand{Content: "abc"})
	assert.Error(t, err)

	_, err = handler.Handle(context.Background(), CreateTextCommand{Title: "abc"})
	assert.Error(t, err)
}

func TestCreateText_PropagatesDomainErrors(t *testing.T) {
	handler := NewCreateTextHandler(newFakeTextRepo())

	_, err := handler.Handle(context.Background(), CreateTextCommand{
		Title:      "bad",
		Content:    "abc",
		Difficulty: "legendary",
	})

	assert.ErrorIs(t, err, shared.ErrInvalidDifficulty)
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"tutor-service/internal/models"
	"tutor-service/internal/tutor"
	"tutor-service/internal/ws"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// In-memory repository fakes.

type fakeMessageRepo struct {
	messages []*models.Message
	nextID   uint
}

func (f *fakeMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	f.nextID++
	msg.ID = f.nextID
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeMessageRepo) ListByConversationID(ctx context.Context, conversationID uint, limit int) ([]*models.Message, error) {
	var out []*models.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeConvRepo struct {
	convs map[uint]*models.Conversation
}

func (f *fakeConvRepo) Create(ctx context.Context, conv *models.Conversation) error {
	f.convs[conv.ID] = conv
	return nil
}

func (f *fakeConvRepo) FindByID(ctx context.Context, id uint) (*models.Conversation, error) {
	conv, ok := f.convs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return conv, nil
}

func (f *fakeConvRepo) FindByIDWithMessages(ctx context.Context, id uint) (*models.Conversation, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeConvRepo) ListByUserID(ctx context.Context, userID uint, skip, limit int) ([]*models.Conversation, error) {
	var out []*models.Conversation
	for _, conv := range f.convs {
		if conv.UserID == userID && conv.IsActive {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (f *fakeConvRepo) Update(ctx context.Context, conv *models.Conversation) error {
	f.convs[conv.ID] = conv
	return nil
}

func (f *fakeConvRepo) Deactivate(ctx context.Context, id uint) error {
	if conv, ok := f.convs[id]; ok {
		conv.IsActive = false
	}
	return nil
}

type fakeUserRepo struct {
	users map[uint]*models.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByID(ctx context.Context, userID uint) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) UpsertPreference(ctx context.Context, pref *models.UserPreference) error {
	u, ok := f.users[pref.UserID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Preference = pref
	return nil
}

type recordingBroadcaster struct {
	payloads [][]byte
}

func (r *recordingBroadcaster) SendToUser(userID uint, payload []byte) int {
	r.payloads = append(r.payloads, payload)
	return 1
}

type fakeAudioStore struct {
	stored []byte
}

func (f *fakeAudioStore) UploadAudio(ctx context.Context, userID uint, r io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.stored = data
	return "http://minio.local/tutor-audio/audio/test", nil
}

func newChatFixture(t *testing.T) (*ChatService, *fakeMessageRepo, *recordingBroadcaster, *fakeAudioStore) {
	t.Helper()

	users := &fakeUserRepo{users: map[uint]*models.User{}}
	learner := &models.User{TargetLanguage: "fr", Level: "beginner"}
	learner.ID = 42
	users.users[42] = learner

	convs := &fakeConvRepo{convs: map[uint]*models.Conversation{}}
	conv := &models.Conversation{UserID: 42, Language: "fr", IsActive: true}
	conv.ID = 1
	convs.convs[1] = conv

	closed := &models.Conversation{UserID: 42, Language: "fr", IsActive: false}
	closed.ID = 2
	convs.convs[2] = closed

	other := &models.Conversation{UserID: 7, Language: "es", IsActive: true}
	other.ID = 3
	convs.convs[3] = other

	msgs := &fakeMessageRepo{}
	router := &recordingBroadcaster{}
	audio := &fakeAudioStore{}

	svc := NewChatService(msgs, convs, users, tutor.NewScriptedResponder(), router, audio, nil)
	return svc, msgs, router, audio
}

func TestSendTextPersistsBothTurns(t *testing.T) {
	svc, msgs, _, _ := newChatFixture(t)

	resp, err := svc.SendText(context.Background(), 42, models.TextChatRequest{
		ConversationID: 1,
		Content:        "bonjour",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleUser, resp.UserMessage.Role)
	assert.Equal(t, "bonjour", resp.UserMessage.Content)
	assert.Equal(t, models.RoleAssistant, resp.TutorMessage.Role)
	assert.NotEmpty(t, resp.TutorMessage.Content)
	assert.Len(t, msgs.messages, 2)
}

func TestSendTextPushesHistoryUpdate(t *testing.T) {
	svc, _, router, _ := newChatFixture(t)

	_, err := svc.SendText(context.Background(), 42, models.TextChatRequest{
		ConversationID: 1,
		Content:        "bonjour",
	})
	require.NoError(t, err)

	require.Len(t, router.payloads, 1)
	var frame ws.Frame
	require.NoError(t, json.Unmarshal(router.payloads[0], &frame))
	assert.Equal(t, "history_update", frame.Type)
	assert.Equal(t, uint(42), frame.UserID)
	assert.Equal(t, uint(1), frame.ConversationID)
}

func TestSendTextRejectsForeignConversation(t *testing.T) {
	svc, msgs, router, _ := newChatFixture(t)

	_, err := svc.SendText(context.Background(), 42, models.TextChatRequest{
		ConversationID: 3,
		Content:        "hola",
	})
	assert.ErrorIs(t, err, ErrNotConversationOwner)
	assert.Empty(t, msgs.messages)
	assert.Empty(t, router.payloads)
}

func TestSendTextRejectsClosedConversation(t *testing.T) {
	svc, _, _, _ := newChatFixture(t)

	_, err := svc.SendText(context.Background(), 42, models.TextChatRequest{
		ConversationID: 2,
		Content:        "bonjour",
	})
	assert.ErrorIs(t, err, ErrConversationClosed)
}

func TestSendAudioStoresUploadAndRecordsURL(t *testing.T) {
	svc, msgs, router, audio := newChatFixture(t)

	payload := []byte("fake-ogg-bytes")
	resp, err := svc.SendAudio(context.Background(), 42, 1,
		bytes.NewReader(payload), int64(len(payload)), "audio/ogg")
	require.NoError(t, err)

	assert.Equal(t, payload, audio.stored)
	require.NotNil(t, resp.AudioURL)
	assert.Contains(t, *resp.AudioURL, "tutor-audio")
	assert.Len(t, msgs.messages, 1)
	assert.Len(t, router.payloads, 1)
}

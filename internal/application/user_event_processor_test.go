package application

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enterprise/user-service/internal/domain/entity"
)

type sentMail struct {
	To, Subject, Text, HTML string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, text, html string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, text, html})
	return nil
}

func eventBody(t *testing.T, typ string, u *entity.User) []byte {
	t.Helper()
	b, err := json.Marshal(entity.NewUserEvent(typ, u))
	require.NoError(t, err)
	return b
}

func TestEventProcessorCreatedIndexesAndWelcomes(t *testing.T) {
	fake := &fakeES{status: http.StatusCreated}
	mail := &fakeMailer{}
	p := &EventProcessor{Search: newTestSearch(t, fake), Mail: mail, AppName: "Users"}

	u := &entity.User{ID: 3, Name: "Jane Doe", Email: "jane@example.com", Active: true}
	require.NoError(t, p.Handle(context.Background(), eventBody(t, entity.UserCreated, u)))

	assert.Equal(t, "/users/_doc/3", fake.last(t).Path)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "jane@example.com", mail.sent[0].To)
	assert.Equal(t, "Welcome to Users", mail.sent[0].Subject)
	assert.Contains(t, mail.sent[0].Text, "Jane Doe")
}

func TestEventProcessorUpdatedDoesNotEmail(t *testing.T) {
	fake := &fakeES{}
	mail := &fakeMailer{}
	p := &EventProcessor{Search: newTestSearch(t, fake), Mail: mail}

	u := &entity.User{ID: 4, Name: "Jane", Email: "jane@example.com"}
	require.NoError(t, p.Handle(context.Background(), eventBody(t, entity.UserUpdated, u)))
	assert.Equal(t, http.MethodPut, fake.last(t).Method)
	assert.Empty(t, mail.sent)
}

func TestEventProcessorDeleted(t *testing.T) {
	fake := &fakeES{status: http.StatusNotFound}
	p := &EventProcessor{Search: newTestSearch(t, fake)}

	require.NoError(t, p.Handle(context.Background(), eventBody(t, entity.UserDeleted, &entity.User{ID: 9})))
	assert.Equal(t, http.MethodDelete, fake.last(t).Method)
}

func TestEventProcessorWithoutSearch(t *testing.T) {
	p := &EventProcessor{Search: NewSearchService(nil, "users", nil)}
	u := &entity.User{ID: 1, Name: "Jo", Email: "jo@example.com"}
	assert.NoError(t, p.Handle(context.Background(), eventBody(t, entity.UserCreated, u)))
	assert.NoError(t, p.Handle(context.Background(), eventBody(t, entity.UserDeleted, u)))
}

func TestEventProcessorMalformed(t *testing.T) {
	p := &EventProcessor{Search: NewSearchService(nil, "users", nil)}

	cases := map[string][]byte{
		"not json":     []byte("{"),
		"missing id":   []byte(`{"type":"user.created"}`),
		"unknown type": []byte(`{"type":"user.renamed","user_id":1}`),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			err := p.Handle(context.Background(), body)
			assert.ErrorIs(t, err, ErrMalformedEvent)
		})
	}
}

func TestEventProcessorMailFailureIsRetryable(t *testing.T) {
	mail := &fakeMailer{err: errors.New("mailgun down")}
	p := &EventProcessor{Search: NewSearchService(nil, "users", nil), Mail: mail}

	u := &entity.User{ID: 2, Name: "Jo", Email: "jo@example.com"}
	err := p.Handle(context.Background(), eventBody(t, entity.UserCreated, u))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedEvent)
}

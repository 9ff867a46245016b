package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Notify(ctx context.Context, fid int64, title, body string) error {
	args := m.Called(ctx, fid, title, body)
	return args.Error(0)
}

func TestComposite_DeliversToEverySink(t *testing.T) {
	first, second := new(MockSink), new(MockSink)
	first.On("Notify", mock.Anything, int64(7), "Hi", "there").Return(errors.New("down"))
	second.On("Notify", mock.Anything, int64(7), "Hi", "there").Return(nil)

	c := NewComposite(first, nil, second)
	err := c.Notify(context.Background(), 7, "Hi", "there")

	assert.ErrorContains(t, err, "down")
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestComposite_Empty(t *testing.T) {
	assert.Error(t, NewComposite().Notify(context.Background(), 1, "a", "b"))
}

func TestClip(t *testing.T) {
	title, body := Clip("short", "body")
	assert.Equal(t, "short", title)
	assert.Equal(t, "body", body)

	title, body = Clip(strings.Repeat("t", 40), strings.Repeat("é", 200))
	assert.Equal(t, MaxTitleLength, utf8.RuneCountInString(title))
	assert.Equal(t, MaxBodyLength, utf8.RuneCountInString(body))
	assert.True(t, strings.HasSuffix(title, "…"))
}

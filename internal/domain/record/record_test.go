package record

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/appsync/internal/shared/id"
	"github.com/GriffinCanCode/appsync/internal/shared/types"
)

type mockSyncer struct {
	mock.Mock
}

func (m *mockSyncer) Sync(ctx context.Context, method, path string, body any) ([]byte, error) {
	args := m.Called(ctx, method, path, body)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func TestURLIsFixed(t *testing.T) {
	rec := New(&mockSyncer{}, "")
	assert.Equal(t, "/app", rec.URL())

	require.NoError(t, rec.Set("id", 42))
	assert.Equal(t, "/app", rec.URL(), "the id must not be composed into the URL")
}

func TestFetchMergesServerAttributes(t *testing.T) {
	syncer := &mockSyncer{}
	syncer.On("Sync", mock.Anything, http.MethodGet, "/app", nil).
		Return([]byte(`{"id":3,"name":"Mail","version":"2.1","result":"ok"}`), nil).Once()

	rec := New(syncer, types.AppEndpoint)
	require.NoError(t, rec.Set("color", "blue"))
	require.NoError(t, rec.Fetch(context.Background()))

	assert.Equal(t, id.AppID("3"), rec.ID())
	assert.Equal(t, "Mail", rec.Name())
	version, ok := rec.Get("version")
	assert.True(t, ok)
	assert.Equal(t, "2.1", version)
	color, _ := rec.Get("color")
	assert.Equal(t, "blue", color)
	_, hasResult := rec.Get("result")
	assert.False(t, hasResult)
	syncer.AssertExpectations(t)
}

func TestFetchFailureLeavesAttributes(t *testing.T) {
	syncer := &mockSyncer{}
	syncer.On("Sync", mock.Anything, http.MethodGet, "/app", nil).
		Return(nil, errors.New("connection refused"))

	rec := New(syncer, "/app")
	require.NoError(t, rec.Set("name", "Local"))

	err := rec.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "Local", rec.Name())
}

func TestFetchRejectsNonObject(t *testing.T) {
	syncer := &mockSyncer{}
	syncer.On("Sync", mock.Anything, http.MethodGet, "/app", nil).Return([]byte(`[1,2]`), nil)

	rec := New(syncer, "/app")
	assert.Error(t, rec.Fetch(context.Background()))
	assert.True(t, rec.IsNew())
}

func TestSaveNewRecordPosts(t *testing.T) {
	syncer := &mockSyncer{}
	syncer.On("Sync", mock.Anything, http.MethodPost, "/app", mock.MatchedBy(func(body any) bool {
		app, ok := body.(types.App)
		return ok && app.Name == "Notes" && app.IsNew()
	})).Return([]byte(`{"uuid":"5f0c7a4e-2a6b-4b8e-9d55-0c1f2a3b4c5d","id":9}`), nil).Once()

	rec := New(syncer, "/app")
	require.NoError(t, rec.Set("name", "Notes"))
	require.True(t, rec.IsNew())

	require.NoError(t, rec.Save(context.Background()))

	assert.False(t, rec.IsNew())
	assert.Equal(t, id.AppID("9"), rec.ID())
	assert.Equal(t, "Notes", rec.Name(), "local attributes survive a partial server response")
	uuid, _ := rec.Get("uuid")
	assert.Equal(t, "5f0c7a4e-2a6b-4b8e-9d55-0c1f2a3b4c5d", uuid)
	syncer.AssertExpectations(t)
}

func TestSaveExistingRecordPuts(t *testing.T) {
	syncer := &mockSyncer{}
	syncer.On("Sync", mock.Anything, http.MethodPut, "/app", mock.Anything).
		Return([]byte(`{"id":9,"name":"Server Name"}`), nil).Once()

	rec := New(syncer, "/app").WithApp(types.App{ID: "9", Name: "Local Name"})
	require.NoError(t, rec.Save(context.Background()))

	assert.Equal(t, "Server Name", rec.Name(), "server values win on merge")
	syncer.AssertExpectations(t)
}

func TestSaveEmptyResponse(t *testing.T) {
	syncer := &mockSyncer{}
	syncer.On("Sync", mock.Anything, http.MethodPut, "/app", mock.Anything).Return([]byte{}, nil)

	rec := New(syncer, "/app").WithApp(types.App{ID: "1", Name: "Keep"})
	require.NoError(t, rec.Save(context.Background()))
	assert.Equal(t, "Keep", rec.Name())
}

func TestSaveFailure(t *testing.T) {
	syncer := &mockSyncer{}
	syncer.On("Sync", mock.Anything, http.MethodPost, "/app", mock.Anything).
		Return(nil, errors.New("name is taken"))

	rec := New(syncer, "/app")
	require.NoError(t, rec.Set("name", "Dup"))

	err := rec.Save(context.Background())
	require.Error(t, err)
	assert.True(t, rec.IsNew())
}

func TestDestroyNewRecordSkipsRequest(t *testing.T) {
	syncer := &mockSyncer{}

	rec := New(syncer, "/app")
	require.NoError(t, rec.Destroy(context.Background()))

	assert.True(t, rec.Destroyed())
	syncer.AssertNotCalled(t, "Sync", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDestroySavedRecord(t *testing.T) {
	syncer := &mockSyncer{}
	syncer.On("Sync", mock.Anything, http.MethodDelete, "/app", nil).Return([]byte{}, nil).Once()

	rec := New(syncer, "/app").WithApp(types.App{ID: "4"})
	require.NoError(t, rec.Destroy(context.Background()))
	assert.True(t, rec.Destroyed())

	assert.ErrorIs(t, rec.Fetch(context.Background()), ErrDestroyed)
	assert.ErrorIs(t, rec.Save(context.Background()), ErrDestroyed)
	require.NoError(t, rec.Destroy(context.Background()))
	syncer.AssertExpectations(t)
}

func TestDestroyFailure(t *testing.T) {
	syncer := &mockSyncer{}
	syncer.On("Sync", mock.Anything, http.MethodDelete, "/app", nil).Return(nil, errors.New("boom"))

	rec := New(syncer, "/app").WithApp(types.App{ID: "4"})
	assert.Error(t, rec.Destroy(context.Background()))
	assert.False(t, rec.Destroyed())
}

func TestDecodeEntity(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantOK  bool
		wantErr bool
		wantID  id.AppID
	}{
		{name: "empty", body: "  ", wantOK: false},
		{name: "object", body: `{"id":"abc"}`, wantOK: true, wantID: "abc"},
		{name: "envelope keys dropped", body: `{"id":1,"result":"ok","text":""}`, wantOK: true, wantID: "1"},
		{name: "array", body: `[]`, wantErr: true},
		{name: "garbage", body: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, ok, err := DecodeEntity([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, app.ID)
			assert.Empty(t, app.Attributes)
		})
	}
}

func TestMergeReportsChange(t *testing.T) {
	rec := New(&mockSyncer{}, "/app").WithApp(types.App{ID: "1", Name: "A"})

	assert.False(t, rec.Merge(types.App{ID: "1", Name: "A"}))
	assert.True(t, rec.Merge(types.App{Attributes: map[string]any{"icon": "a.png"}}))
	assert.True(t, rec.Merge(types.App{Name: "B"}))
	assert.Equal(t, "B", rec.Name())
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionKind(t *testing.T) {
	tests := []struct {
		input   string
		want    ActionKind
		wantErr bool
	}{
		{input: "DOWNLOAD_GAME", want: ActionDownloadGame},
		{input: "WRITE_REVIEW", want: ActionWriteReview},
		{input: "download_game", want: ActionDownloadGame},
		{input: "write_review", want: ActionWriteReview},
		{input: "JUMP", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			kind, err := ParseActionKind(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidActionKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestAwardRequestValidate(t *testing.T) {
	gameID := "game-1"

	tests := []struct {
		name    string
		req     AwardRequest
		wantErr error
	}{
		{
			name: "valid with game",
			req:  AwardRequest{PlayerID: "alice", GameID: &gameID, Action: ActionDownloadGame, Points: 10},
		},
		{
			name: "valid without game",
			req:  AwardRequest{PlayerID: "alice", Action: ActionWriteReview, Points: 5},
		},
		{
			name:    "missing player",
			req:     AwardRequest{Action: ActionWriteReview, Points: 5},
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "unknown action",
			req:     AwardRequest{PlayerID: "alice", Action: "JUMP", Points: 5},
			wantErr: ErrInvalidActionKind,
		},
		{
			name:    "zero points",
			req:     AwardRequest{PlayerID: "alice", Action: ActionWriteReview, Points: 0},
			wantErr: ErrInvalidPoints,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCreateGiftRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateGiftRequest
		wantErr error
	}{
		{
			name: "valid",
			req:  CreateGiftRequest{Name: "Mug", PointCost: 100, Stock: 5, PublisherID: "publisher"},
		},
		{
			name: "zero stock is allowed",
			req:  CreateGiftRequest{Name: "Mug", PointCost: 100, Stock: 0, PublisherID: "publisher"},
		},
		{
			name:    "missing name",
			req:     CreateGiftRequest{PointCost: 100, Stock: 5, PublisherID: "publisher"},
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "missing publisher",
			req:     CreateGiftRequest{Name: "Mug", PointCost: 100, Stock: 5},
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "zero cost",
			req:     CreateGiftRequest{Name: "Mug", PointCost: 0, Stock: 5, PublisherID: "publisher"},
			wantErr: ErrInvalidPointCost,
		},
		{
			name:    "negative stock",
			req:     CreateGiftRequest{Name: "Mug", PointCost: 100, Stock: -1, PublisherID: "publisher"},
			wantErr: ErrInvalidStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsNotFound(ErrAccountNotFound))
	assert.True(t, IsNotFound(ErrGameNotFound))
	assert.True(t, IsNotFound(ErrGiftNotFound))
	assert.False(t, IsNotFound(ErrAlreadyAwarded))

	assert.True(t, IsInvalidArgument(ErrInvalidActionKind))
	assert.True(t, IsInvalidArgument(ErrPointsNotSupported))
	assert.False(t, IsInvalidArgument(ErrStoreFailure))

	assert.True(t, IsConflict(ErrAlreadyAwarded))
	assert.True(t, IsConflict(ErrOutOfStock))
	assert.True(t, IsConflict(ErrInsufficientBalance))
	assert.False(t, IsConflict(ErrAccountNotFound))
}

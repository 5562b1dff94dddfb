package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pairchat-service/internal/models"
)

var (
	ErrInviteNotFound   = errors.New("invite not found")
	ErrInviteNotPending = errors.New("invite is not pending")
)

const inviteColumns = `id, sender_id, sender_name, recipient_id, status, created_at`

// InviteRepository abstracts chat invite persistence.
type InviteRepository interface {
	CreateInvite(ctx context.Context, invite models.Invite) (models.Invite, error)
	FindPendingInvite(ctx context.Context, senderID string, recipientID string) (models.Invite, error)
	ListPendingInvites(ctx context.Context, recipientID string) ([]models.Invite, error)
	GetInvite(ctx context.Context, inviteID string) (models.Invite, error)
	UpdateStatusIfPending(ctx context.Context, inviteID string, recipientID string, status models.InviteStatus) (models.Invite, error)
}

// InviteRepo is a sqlx implementation of InviteRepository.
type InviteRepo struct {
	db *sqlx.DB
}

// NewInviteRepo constructs an InviteRepo.
func NewInviteRepo(db *sqlx.DB) *InviteRepo {
	return &InviteRepo{db: db}
}

// CreateInvite stores a pending invite. An empty ID gets a fresh uuid.
func (r *InviteRepo) CreateInvite(ctx context.Context, invite models.Invite) (models.Invite, error) {
	if invite.ID == "" {
		invite.ID = uuid.NewString()
	}
	var created models.Invite
	err := r.db.GetContext(ctx, &created, `INSERT INTO invites (id, sender_id, sender_name, recipient_id, status)
        VALUES ($1, $2, $3, $4, $5) RETURNING `+inviteColumns,
		invite.ID, invite.SenderID, invite.SenderName, invite.RecipientID, models.InvitePending)
	return created, err
}

// FindPendingInvite returns the pending invite from sender to recipient, if any.
func (r *InviteRepo) FindPendingInvite(ctx context.Context, senderID string, recipientID string) (models.Invite, error) {
	var invite models.Invite
	err := r.db.GetContext(ctx, &invite, `SELECT `+inviteColumns+` FROM invites
        WHERE sender_id=$1 AND recipient_id=$2 AND status=$3
        ORDER BY created_at ASC LIMIT 1`, senderID, recipientID, models.InvitePending)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Invite{}, ErrInviteNotFound
	}
	return invite, err
}

func (r *InviteRepo) ListPendingInvites(ctx context.Context, recipientID string) ([]models.Invite, error) {
	invites := []models.Invite{}
	err := r.db.SelectContext(ctx, &invites, `SELECT `+inviteColumns+` FROM invites
        WHERE recipient_id=$1 AND status=$2
        ORDER BY created_at DESC`, recipientID, models.InvitePending)
	return invites, err
}

func (r *InviteRepo) GetInvite(ctx context.Context, inviteID string) (models.Invite, error) {
	var invite models.Invite
	err := r.db.GetContext(ctx, &invite, `SELECT `+inviteColumns+` FROM invites WHERE id=$1`, inviteID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Invite{}, ErrInviteNotFound
	}
	return invite, err
}

// UpdateStatusIfPending moves a pending invite addressed to recipientID to status.
// Only one caller can win the transition.
func (r *InviteRepo) UpdateStatusIfPending(ctx context.Context, inviteID string, recipientID string, status models.InviteStatus) (models.Invite, error) {
	var invite models.Invite
	err := r.db.GetContext(ctx, &invite, `UPDATE invites SET status=$3
        WHERE id=$1 AND recipient_id=$2 AND status='pending'
        RETURNING `+inviteColumns, inviteID, recipientID, status)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetInvite(ctx, inviteID); getErr != nil {
			return models.Invite{}, getErr
		}
		return models.Invite{}, ErrInviteNotPending
	}
	return invite, err
}

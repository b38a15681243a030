package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/docsphere/docsphere-backend/internal/repository"
)

// Notifier delivers invitation emails. Delivery is best-effort; a failed
// notification never rolls back the invitation it announces.
type Notifier interface {
	SendInvitation(workspaceName, email, invitedBy, token string) error
}

// AcceptResult reports the outcome of accepting an invitation. AlreadyMember
// is the idempotent path: the membership existed before this call, either
// because a concurrent accept won the race or the user was added directly.
type AcceptResult struct {
	WorkspaceID   string
	AlreadyMember bool
}

type InvitationService interface {
	Create(ctx context.Context, workspaceID, email string, role repository.Role, invitedByID string, message *string) (*repository.Invitation, error)
	GetByToken(ctx context.Context, token string) (*repository.Invitation, error)
	Accept(ctx context.Context, token, userEmail, userID string) (*AcceptResult, error)
	Reject(ctx context.Context, token string) error
	Cancel(ctx context.Context, id, actorID string) error
	Resend(ctx context.Context, id, actorID string) (*repository.Invitation, error)
	SweepExpired(ctx context.Context, workspaceID string) (int, error)
	ListByWorkspace(ctx context.Context, actorID, workspaceID string, limit, offset int) ([]*repository.Invitation, int, error)
	MyInvitations(ctx context.Context, email string) ([]*repository.Invitation, error)
	Activity(ctx context.Context, invitationID string) ([]*repository.InvitationActivity, error)
}

type invitationService struct {
	invRepo       repository.InvitationRepository
	workspaceRepo repository.WorkspaceRepository
	userRepo      repository.UserRepository
	activityRepo  repository.ActivityRepository
	guard         GuardService
	perms         PermissionService
	notifier      Notifier
	defaultTTL    time.Duration
}

func NewInvitationService(
	invRepo repository.InvitationRepository,
	workspaceRepo repository.WorkspaceRepository,
	userRepo repository.UserRepository,
	activityRepo repository.ActivityRepository,
	guard GuardService,
	perms PermissionService,
	notifier Notifier,
	defaultTTL time.Duration,
) InvitationService {
	if defaultTTL <= 0 {
		defaultTTL = 7 * 24 * time.Hour
	}
	return &invitationService{
		invRepo:       invRepo,
		workspaceRepo: workspaceRepo,
		userRepo:      userRepo,
		activityRepo:  activityRepo,
		guard:         guard,
		perms:         perms,
		notifier:      notifier,
		defaultTTL:    defaultTTL,
	}
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func (s *invitationService) Create(ctx context.Context, workspaceID, email string, role repository.Role, invitedByID string, message *string) (*repository.Invitation, error) {
	if strings.TrimSpace(workspaceID) == "" || strings.TrimSpace(email) == "" {
		return nil, ErrInvalidInput
	}
	if !repository.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	email = normalizeEmail(email)

	workspace, err := s.workspaceRepo.FindByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if workspace == nil {
		return nil, ErrNotFound
	}

	decision, err := s.guard.Evaluate(ctx, GuardContext{
		UserID:              invitedByID,
		WorkspaceID:         workspaceID,
		RequiredPermissions: []string{"invite"},
	})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, &DeniedError{Decision: decision}
	}

	// An existing member needs no invitation.
	if invitee, err := s.userRepo.FindByEmail(ctx, email); err == nil && invitee != nil {
		if invitee.ID == workspace.OwnerID {
			return nil, ErrConflict
		}
		member, err := s.workspaceRepo.FindMember(ctx, workspaceID, invitee.ID)
		if err == nil && member != nil {
			return nil, ErrConflict
		}
	}

	inviterName := "Someone"
	if inviter, err := s.userRepo.FindByID(ctx, invitedByID); err == nil && inviter != nil {
		inviterName = inviter.Name
	}

	token, err := newInviteToken()
	if err != nil {
		return nil, err
	}

	inv := &repository.Invitation{
		WorkspaceID:   workspaceID,
		Email:         email,
		Token:         token,
		Role:          role,
		Message:       message,
		InvitedByID:   invitedByID,
		InvitedByName: inviterName,
		Status:        repository.InvitationStatusPending,
		ExpiresAt:     time.Now().Add(s.defaultTTL),
	}

	if err := s.createPending(ctx, inv); err != nil {
		return nil, err
	}

	s.logActivity(ctx, inv.ID, "created", &invitedByID, nil)
	s.notify(workspace.Name, inv)

	return inv, nil
}

// createPending inserts a pending invitation. The uniqueness index only knows
// about status, not the clock, so a past-expiry pending row nobody has read
// yet still blocks the insert. When that happens the workspace is swept and
// the insert retried once; a conflict that survives the sweep is a live
// duplicate.
func (s *invitationService) createPending(ctx context.Context, inv *repository.Invitation) error {
	err := s.invRepo.Create(ctx, inv)
	if !errors.Is(err, repository.ErrDuplicatePending) {
		return err
	}

	swept, serr := s.invRepo.SweepExpired(ctx, inv.WorkspaceID)
	if serr != nil {
		return serr
	}
	if swept == 0 {
		return ErrDuplicateInvitation
	}

	if err := s.invRepo.Create(ctx, inv); err != nil {
		if errors.Is(err, repository.ErrDuplicatePending) {
			return ErrDuplicateInvitation
		}
		return err
	}
	return nil
}

// GetByToken looks an invitation up for display. A pending invitation whose
// clock has run out is flipped to expired as an observable side effect of the
// read; expiry is evaluated, not run as a background job.
func (s *invitationService) GetByToken(ctx context.Context, token string) (*repository.Invitation, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	inv, err := s.invRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrNotFound
	}
	if err := s.expireIfDue(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// expireIfDue transitions a past-expiry pending invitation to expired via
// CAS and updates inv in place. Losing the CAS means another caller already
// resolved the invitation; inv is re-read so the caller sees the winner.
func (s *invitationService) expireIfDue(ctx context.Context, inv *repository.Invitation) error {
	if inv.Status != repository.InvitationStatusPending || !inv.IsExpired() {
		return nil
	}
	won, err := s.invRepo.CASStatus(ctx, inv.ID, repository.InvitationStatusPending, repository.InvitationStatusExpired)
	if err != nil {
		return err
	}
	if won {
		inv.Status = repository.InvitationStatusExpired
		s.logActivity(ctx, inv.ID, "expired", nil, nil)
		return nil
	}
	fresh, err := s.invRepo.FindByID(ctx, inv.ID)
	if err != nil {
		return err
	}
	if fresh != nil {
		*inv = *fresh
	}
	return nil
}

func (s *invitationService) Accept(ctx context.Context, token, userEmail, userID string) (*AcceptResult, error) {
	if userID == "" || userEmail == "" {
		return nil, ErrInvalidInput
	}

	inv, err := s.invRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrNotFound
	}
	if err := s.expireIfDue(ctx, inv); err != nil {
		return nil, err
	}

	// The email gate comes before any state transition: a mismatched account
	// must leave the invitation pending so the right user can still accept.
	if normalizeEmail(userEmail) != normalizeEmail(inv.Email) {
		return nil, ErrEmailMismatch
	}

	switch inv.Status {
	case repository.InvitationStatusPending:
		// fall through to the CAS below
	case repository.InvitationStatusAccepted:
		return s.acceptedResult(ctx, inv, userID)
	case repository.InvitationStatusExpired:
		return nil, ErrExpired
	default:
		return nil, ErrAlreadyTerminal
	}

	won, err := s.invRepo.MarkAccepted(ctx, inv.ID, userID)
	if err != nil {
		return nil, err
	}
	if !won {
		// Lost the race. The winner performed the membership write; report
		// the idempotent success path instead of an error.
		fresh, err := s.invRepo.FindByID(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		if fresh == nil || fresh.Status != repository.InvitationStatusAccepted {
			return nil, ErrAlreadyTerminal
		}
		return s.acceptedResult(ctx, fresh, userID)
	}

	s.logActivity(ctx, inv.ID, "accepted", &userID, nil)

	workspace, err := s.workspaceRepo.FindByID(ctx, inv.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if workspace != nil && workspace.OwnerID == userID {
		// The owner is an implicit member and never appears in the member
		// list.
		return &AcceptResult{WorkspaceID: inv.WorkspaceID, AlreadyMember: true}, nil
	}

	created, err := s.workspaceRepo.AddMember(ctx, &repository.WorkspaceMember{
		WorkspaceID: inv.WorkspaceID,
		UserID:      userID,
		Role:        inv.Role,
	})
	if err != nil {
		return nil, err
	}
	s.perms.InvalidateAccess(ctx, inv.WorkspaceID, userID)

	return &AcceptResult{WorkspaceID: inv.WorkspaceID, AlreadyMember: !created}, nil
}

// acceptedResult handles an accept call against an already-accepted
// invitation. Only the user the invitation resolved to gets the idempotent
// success; anyone else is told the invitation is spent.
func (s *invitationService) acceptedResult(ctx context.Context, inv *repository.Invitation, userID string) (*AcceptResult, error) {
	if inv.AcceptedBy != nil && *inv.AcceptedBy == userID {
		return &AcceptResult{WorkspaceID: inv.WorkspaceID, AlreadyMember: true}, nil
	}
	if member, err := s.workspaceRepo.FindMember(ctx, inv.WorkspaceID, userID); err == nil && member != nil {
		return &AcceptResult{WorkspaceID: inv.WorkspaceID, AlreadyMember: true}, nil
	}
	return nil, ErrAlreadyTerminal
}

func (s *invitationService) Reject(ctx context.Context, token string) error {
	inv, err := s.invRepo.FindByToken(ctx, token)
	if err != nil {
		return err
	}
	if inv == nil {
		return ErrNotFound
	}
	if err := s.expireIfDue(ctx, inv); err != nil {
		return err
	}

	switch inv.Status {
	case repository.InvitationStatusPending:
	case repository.InvitationStatusRejected:
		return nil // idempotent
	case repository.InvitationStatusExpired:
		return ErrExpired
	default:
		return ErrAlreadyTerminal
	}

	won, err := s.invRepo.CASStatus(ctx, inv.ID, repository.InvitationStatusPending, repository.InvitationStatusRejected)
	if err != nil {
		return err
	}
	if !won {
		fresh, err := s.invRepo.FindByID(ctx, inv.ID)
		if err != nil {
			return err
		}
		if fresh != nil && fresh.Status == repository.InvitationStatusRejected {
			return nil
		}
		return ErrAlreadyTerminal
	}

	s.logActivity(ctx, inv.ID, "rejected", nil, nil)
	return nil
}

func (s *invitationService) Cancel(ctx context.Context, id, actorID string) error {
	inv, err := s.invRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if inv == nil {
		return ErrNotFound
	}

	decision, err := s.guard.Evaluate(ctx, GuardContext{
		UserID:      actorID,
		WorkspaceID: inv.WorkspaceID,
		MinimumRole: repository.RoleAdmin,
	})
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return &DeniedError{Decision: decision}
	}

	if err := s.expireIfDue(ctx, inv); err != nil {
		return err
	}
	if inv.Status != repository.InvitationStatusPending {
		return ErrAlreadyTerminal
	}

	won, err := s.invRepo.CASStatus(ctx, inv.ID, repository.InvitationStatusPending, repository.InvitationStatusCancelled)
	if err != nil {
		return err
	}
	if !won {
		return ErrAlreadyTerminal
	}

	s.logActivity(ctx, inv.ID, "cancelled", &actorID, nil)
	return nil
}

// Resend issues a fresh invitation with a new token and expiry and cancels
// the old one when it is still pending. This keeps tokens single-use: the
// old link stops working the moment the new one exists. An expired original
// may be revived this way; accepted, rejected and cancelled ones may not.
func (s *invitationService) Resend(ctx context.Context, id, actorID string) (*repository.Invitation, error) {
	inv, err := s.invRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrNotFound
	}

	decision, err := s.guard.Evaluate(ctx, GuardContext{
		UserID:              actorID,
		WorkspaceID:         inv.WorkspaceID,
		RequiredPermissions: []string{"invite"},
	})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, &DeniedError{Decision: decision}
	}

	if err := s.expireIfDue(ctx, inv); err != nil {
		return nil, err
	}

	switch inv.Status {
	case repository.InvitationStatusPending:
		won, err := s.invRepo.CASStatus(ctx, inv.ID, repository.InvitationStatusPending, repository.InvitationStatusCancelled)
		if err != nil {
			return nil, err
		}
		if !won {
			return nil, ErrAlreadyTerminal
		}
	case repository.InvitationStatusExpired:
		// Reviving an expired invitation needs no transition on the old row.
	default:
		return nil, ErrAlreadyTerminal
	}

	s.logActivity(ctx, inv.ID, "resent", &actorID, nil)

	workspace, err := s.workspaceRepo.FindByID(ctx, inv.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if workspace == nil {
		return nil, ErrNotFound
	}

	inviterName := inv.InvitedByName
	if actor, err := s.userRepo.FindByID(ctx, actorID); err == nil && actor != nil {
		inviterName = actor.Name
	}

	token, err := newInviteToken()
	if err != nil {
		return nil, err
	}

	fresh := &repository.Invitation{
		WorkspaceID:   inv.WorkspaceID,
		Email:         inv.Email,
		Token:         token,
		Role:          inv.Role,
		Message:       inv.Message,
		InvitedByID:   actorID,
		InvitedByName: inviterName,
		Status:        repository.InvitationStatusPending,
		ExpiresAt:     time.Now().Add(s.defaultTTL),
	}
	if err := s.createPending(ctx, fresh); err != nil {
		return nil, err
	}

	s.logActivity(ctx, fresh.ID, "created", &actorID, nil)
	s.notify(workspace.Name, fresh)

	return fresh, nil
}

func (s *invitationService) SweepExpired(ctx context.Context, workspaceID string) (int, error) {
	count, err := s.invRepo.SweepExpired(ctx, workspaceID)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Printf("[Invitation] swept %d expired invitation(s)", count)
	}
	return count, nil
}

func (s *invitationService) ListByWorkspace(ctx context.Context, actorID, workspaceID string, limit, offset int) ([]*repository.Invitation, int, error) {
	decision, err := s.guard.Evaluate(ctx, GuardContext{
		UserID:              actorID,
		WorkspaceID:         workspaceID,
		RequiredPermissions: []string{"invite"},
	})
	if err != nil {
		return nil, 0, err
	}
	if !decision.Allowed {
		return nil, 0, &DeniedError{Decision: decision}
	}
	if limit <= 0 {
		limit = 50
	}
	return s.invRepo.FindByWorkspace(ctx, workspaceID, limit, offset)
}

func (s *invitationService) MyInvitations(ctx context.Context, email string) ([]*repository.Invitation, error) {
	if email == "" {
		return nil, ErrInvalidInput
	}
	return s.invRepo.FindPendingByEmail(ctx, normalizeEmail(email))
}

func (s *invitationService) Activity(ctx context.Context, invitationID string) ([]*repository.InvitationActivity, error) {
	return s.activityRepo.FindByInvitation(ctx, invitationID)
}

func (s *invitationService) logActivity(ctx context.Context, invitationID, action string, actorID *string, details *string) {
	if s.activityRepo == nil {
		return
	}
	actorType := "user"
	if actorID == nil {
		actorType = "system"
	}
	if err := s.activityRepo.Log(ctx, &repository.InvitationActivity{
		InvitationID: invitationID,
		Action:       action,
		ActorID:      actorID,
		ActorType:    actorType,
		Details:      details,
	}); err != nil {
		log.Printf("[Invitation] activity log failed: %v", err)
	}
}

func (s *invitationService) notify(workspaceName string, inv *repository.Invitation) {
	if s.notifier == nil {
		return
	}
	go func(inv *repository.Invitation) {
		if err := s.notifier.SendInvitation(workspaceName, inv.Email, inv.InvitedByName, inv.Token); err != nil {
			log.Printf("[Invitation] failed to send email to %s: %v", inv.Email, err)
		}
	}(inv)
}

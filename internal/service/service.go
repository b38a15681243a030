package service

import (
	"errors"

	"github.com/docsphere/docsphere-backend/internal/config"
	"github.com/docsphere/docsphere-backend/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("resource already exists")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidInput       = errors.New("invalid input")

	// Invitation lifecycle errors. All user-facing; handlers map each one to
	// a specific message rather than a generic failure.
	ErrDuplicateInvitation = errors.New("a pending invitation already exists for this email")
	ErrAlreadyTerminal     = errors.New("invitation has already been resolved")
	ErrExpired             = errors.New("invitation has expired")
	ErrEmailMismatch       = errors.New("invitation was issued for a different email address")
)

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth       AuthService
	User       UserService
	Workspace  WorkspaceService
	Member     MemberService
	Permission PermissionService
	Guard      GuardService
	Invitation InvitationService
}

// ServiceDeps contains all dependencies needed to create services
type ServiceDeps struct {
	Config   *config.Config
	Repos    *repository.Repositories
	Notifier Notifier
	Cache    PermissionCache
}

func NewServices(deps *ServiceDeps) *Services {
	permissionService := NewPermissionService(deps.Repos.WorkspaceRepo, deps.Cache)
	guardService := NewGuardService(permissionService)

	return &Services{
		Auth:       NewAuthService(deps.Config, deps.Repos.UserRepo),
		User:       NewUserService(deps.Repos.UserRepo),
		Workspace:  NewWorkspaceService(deps.Repos.WorkspaceRepo, guardService),
		Member:     NewMemberService(deps.Repos.WorkspaceRepo, deps.Repos.UserRepo, guardService, permissionService),
		Permission: permissionService,
		Guard:      guardService,
		Invitation: NewInvitationService(
			deps.Repos.InvitationRepo,
			deps.Repos.WorkspaceRepo,
			deps.Repos.UserRepo,
			deps.Repos.ActivityRepo,
			guardService,
			permissionService,
			deps.Notifier,
			deps.Config.InviteTTL(),
		),
	}
}

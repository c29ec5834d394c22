package services

import (
	"context"
	"time"

	"agora/internal/models"
)

// MockUserRepository is a function-field mock for UserRepository
type MockUserRepository struct {
	CreateFunc        func(ctx context.Context, user *models.User) (*models.User, error)
	GetByIDFunc       func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc    func(ctx context.Context, email string) (*models.User, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*models.User, error)
	ListFunc          func(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdateProfileFunc func(ctx context.Context, id, username string, passwordHash *string) (*models.User, error)
	DeleteFunc        func(ctx context.Context, id string) error
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return user, nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id, username string, passwordHash *string) (*models.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, username, passwordHash)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockPostRepository is a function-field mock for PostRepository
type MockPostRepository struct {
	CreateFunc       func(ctx context.Context, post *models.Post) (*models.Post, error)
	GetByIDFunc      func(ctx context.Context, id string) (*models.Post, error)
	ListFunc         func(ctx context.Context, limit, offset int) ([]*models.Post, error)
	SearchFunc       func(ctx context.Context, term string, limit, offset int) ([]*models.Post, error)
	UpdateFunc       func(ctx context.Context, id, title, content string) error
	DeleteFunc       func(ctx context.Context, id string) error
	LikeFunc         func(ctx context.Context, postID, userID string) error
	UnlikeFunc       func(ctx context.Context, postID, userID string) error
	HasLikedFunc     func(ctx context.Context, postID, userID string) (bool, error)
	ReportFunc       func(ctx context.Context, postID, reporterID, reason string) error
	ListReportedFunc func(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ClearReportsFunc func(ctx context.Context, postID string) error
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, post)
	}
	return post, nil
}

func (m *MockPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockPostRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockPostRepository) Search(ctx context.Context, term string, limit, offset int) ([]*models.Post, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, term, limit, offset)
	}
	return nil, nil
}

func (m *MockPostRepository) Update(ctx context.Context, id, title, content string) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, title, content)
	}
	return nil
}

func (m *MockPostRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockPostRepository) Like(ctx context.Context, postID, userID string) error {
	if m.LikeFunc != nil {
		return m.LikeFunc(ctx, postID, userID)
	}
	return nil
}

func (m *MockPostRepository) Unlike(ctx context.Context, postID, userID string) error {
	if m.UnlikeFunc != nil {
		return m.UnlikeFunc(ctx, postID, userID)
	}
	return nil
}

func (m *MockPostRepository) HasLiked(ctx context.Context, postID, userID string) (bool, error) {
	if m.HasLikedFunc != nil {
		return m.HasLikedFunc(ctx, postID, userID)
	}
	return false, nil
}

func (m *MockPostRepository) Report(ctx context.Context, postID, reporterID, reason string) error {
	if m.ReportFunc != nil {
		return m.ReportFunc(ctx, postID, reporterID, reason)
	}
	return nil
}

func (m *MockPostRepository) ListReported(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	if m.ListReportedFunc != nil {
		return m.ListReportedFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockPostRepository) ClearReports(ctx context.Context, postID string) error {
	if m.ClearReportsFunc != nil {
		return m.ClearReportsFunc(ctx, postID)
	}
	return nil
}

// MockCommentRepository is a function-field mock for CommentRepository
type MockCommentRepository struct {
	CreateFunc     func(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	GetByIDFunc    func(ctx context.Context, id string) (*models.Comment, error)
	ListByPostFunc func(ctx context.Context, postID string, limit, offset int) ([]*models.Comment, error)
	UpdateFunc     func(ctx context.Context, id, content string) error
	DeleteFunc     func(ctx context.Context, id string) error
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, comment)
	}
	return comment, nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockCommentRepository) ListByPost(ctx context.Context, postID string, limit, offset int) ([]*models.Comment, error) {
	if m.ListByPostFunc != nil {
		return m.ListByPostFunc(ctx, postID, limit, offset)
	}
	return nil, nil
}

func (m *MockCommentRepository) Update(ctx context.Context, id, content string) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, content)
	}
	return nil
}

func (m *MockCommentRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockDispatcher records dispatched emails instead of sending them
type MockDispatcher struct {
	SendVerificationFunc  func(ctx context.Context, to, token, username string) error
	SendPasswordResetFunc func(ctx context.Context, to, token, username string) error

	VerificationsSent []string
	ResetsSent        []string
	LastToken         string
}

func (m *MockDispatcher) SendVerification(ctx context.Context, to, token, username string) error {
	m.VerificationsSent = append(m.VerificationsSent, to)
	m.LastToken = token
	if m.SendVerificationFunc != nil {
		return m.SendVerificationFunc(ctx, to, token, username)
	}
	return nil
}

func (m *MockDispatcher) SendPasswordReset(ctx context.Context, to, token, username string) error {
	m.ResetsSent = append(m.ResetsSent, to)
	m.LastToken = token
	if m.SendPasswordResetFunc != nil {
		return m.SendPasswordResetFunc(ctx, to, token, username)
	}
	return nil
}

// memoryTokenStore backs the token issuer in tests, implementing the same
// match-digest-and-unexpired consume contract as the user repository.
type memoryTokenStore struct {
	users              map[string]*models.User
	verificationHashes map[string]string // userID -> digest
	verificationExpiry map[string]time.Time
	resetHashes        map[string]string
	resetExpiry        map[string]time.Time
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{
		users:              make(map[string]*models.User),
		verificationHashes: make(map[string]string),
		verificationExpiry: make(map[string]time.Time),
		resetHashes:        make(map[string]string),
		resetExpiry:        make(map[string]time.Time),
	}
}

func (s *memoryTokenStore) addUser(user *models.User) {
	s.users[user.ID] = user
}

func (s *memoryTokenStore) SetVerificationToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	s.verificationHashes[userID] = tokenHash
	s.verificationExpiry[userID] = expiresAt
	return nil
}

func (s *memoryTokenStore) SetResetToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	s.resetHashes[userID] = tokenHash
	s.resetExpiry[userID] = expiresAt
	return nil
}

func (s *memoryTokenStore) ConsumeVerificationToken(_ context.Context, tokenHash string, now time.Time) (*models.User, error) {
	for userID, digest := range s.verificationHashes {
		if digest == tokenHash && s.verificationExpiry[userID].After(now) {
			delete(s.verificationHashes, userID)
			delete(s.verificationExpiry, userID)
			user, ok := s.users[userID]
			if !ok {
				user = &models.User{ID: userID}
				s.users[userID] = user
			}
			user.IsVerified = true
			return user, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *memoryTokenStore) ConsumeResetToken(_ context.Context, tokenHash, newPasswordHash string, now time.Time) (*models.User, error) {
	for userID, digest := range s.resetHashes {
		if digest == tokenHash && s.resetExpiry[userID].After(now) {
			delete(s.resetHashes, userID)
			delete(s.resetExpiry, userID)
			user, ok := s.users[userID]
			if !ok {
				user = &models.User{ID: userID}
				s.users[userID] = user
			}
			user.PasswordHash = newPasswordHash
			return user, nil
		}
	}
	return nil, models.ErrNotFound
}

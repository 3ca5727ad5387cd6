package identity

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/visitdesk/visitdesk/internal/platform/auth"
	"github.com/visitdesk/visitdesk/internal/platform/blobstore"
)

// Image is an uploaded profile picture.
type Image struct {
	FileName string
	Content  io.Reader
}

// Session is a successful login: the account, without its password, and its token.
type Session struct {
	Account interface{}
	Token   string
}

type Service struct {
	repo   Repository
	tokens *auth.TokenIssuer
	blobs  blobstore.Store
	logger zerolog.Logger
}

func NewService(repo Repository, tokens *auth.TokenIssuer, blobs blobstore.Store, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		blobs:  blobs,
		logger: logger.With().Str("component", "identity").Logger(),
	}
}

// AccountExists satisfies auth.AccountChecker.
func (s *Service) AccountExists(ctx context.Context, role auth.Role, id int64) (bool, error) {
	return s.repo.AccountExists(ctx, role, id)
}

// Login checks the credentials of an account of the requested type and
// issues a bearer token for it. Unknown email and wrong password both
// report ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	email := normalizeEmail(req.Email)

	var (
		account interface{}
		id      int64
		hash    string
	)
	switch req.Type {
	case auth.RoleClinician:
		c, err := s.repo.ClinicianByEmail(ctx, email)
		if err != nil {
			return nil, credentialsErr(err)
		}
		account, id, hash = c, c.ID, c.PasswordHash
	case auth.RolePatient:
		p, err := s.repo.PatientByEmail(ctx, email)
		if err != nil {
			return nil, credentialsErr(err)
		}
		account, id, hash = p, p.ID, p.PasswordHash
	default:
		return nil, ErrInvalidCredentials
	}

	ok, err := auth.CheckPassword(hash, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Info().Str("role", string(req.Type)).Int64("account_id", id).Msg("login rejected")
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(auth.Identity{ID: id, Role: req.Type})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("role", string(req.Type)).Int64("account_id", id).Msg("login")
	return &Session{Account: account, Token: token}, nil
}

func credentialsErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrInvalidCredentials
	}
	return err
}

func (s *Service) Clinician(ctx context.Context, id int64) (*Clinician, error) {
	return s.repo.GetClinician(ctx, id)
}

func (s *Service) Patient(ctx context.Context, id int64) (*Patient, error) {
	return s.repo.GetPatient(ctx, id)
}

func (s *Service) PatientOptions(ctx context.Context) ([]PatientOption, error) {
	return s.repo.ListPatientOptions(ctx)
}

// UpdateClinicianProfile applies in to the clinician's record. img may be nil.
func (s *Service) UpdateClinicianProfile(ctx context.Context, id int64, in ClinicianProfileInput, img *Image) (*Clinician, error) {
	c, err := s.repo.GetClinician(ctx, id)
	if err != nil {
		return nil, err
	}
	hash, err := s.hashOptional(in.Password)
	if err != nil {
		return nil, err
	}
	in.apply(c)

	old, err := s.storeImage(ctx, "clinician", img, &c.Image)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateClinician(ctx, c, hash); err != nil {
		return nil, err
	}
	s.dropImage(ctx, old)
	s.logger.Info().Int64("clinician_id", id).Bool("password_changed", hash != "").Msg("clinician profile updated")
	return c, nil
}

// UpdatePatientProfile applies in to the patient's record. img may be nil.
func (s *Service) UpdatePatientProfile(ctx context.Context, id int64, in PatientProfileInput, img *Image) (*Patient, error) {
	p, err := s.repo.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)

	old, err := s.storeImage(ctx, "patients", img, &p.Image)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePatient(ctx, p, ""); err != nil {
		return nil, err
	}
	s.dropImage(ctx, old)
	s.logger.Info().Int64("patient_id", id).Msg("patient profile updated")
	return p, nil
}

func (s *Service) hashOptional(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	return auth.HashPassword(password)
}

// storeImage saves img and points *field at it, returning the URL it replaced.
func (s *Service) storeImage(ctx context.Context, folder string, img *Image, field **string) (string, error) {
	if img == nil {
		return "", nil
	}
	obj, err := s.blobs.Put(ctx, folder, img.FileName, img.Content)
	if err != nil {
		return "", err
	}
	var old string
	if *field != nil {
		old = **field
	}
	url := obj.URL()
	*field = &url
	return old, nil
}

func (s *Service) dropImage(ctx context.Context, url string) {
	key, ok := blobstore.KeyFromURL(url)
	if !ok {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		s.logger.Warn().Err(err).Str("key", key).Msg("remove replaced profile image")
	}
}

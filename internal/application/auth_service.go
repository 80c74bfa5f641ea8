package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/storefront-auth/internal/domain/apperror"
	"github.com/oksasatya/storefront-auth/internal/domain/entity"
	"github.com/oksasatya/storefront-auth/internal/domain/repository"
	"github.com/oksasatya/storefront-auth/internal/domain/service"
	"github.com/oksasatya/storefront-auth/internal/infrastructure/search"
	"github.com/oksasatya/storefront-auth/pkg/helpers"
	mailtpl "github.com/oksasatya/storefront-auth/pkg/mailer/templates"
	"github.com/oksasatya/storefront-auth/pkg/validation"
)

// Directory is the admin-searchable copy of the user base.
type Directory interface {
	IndexUser(ctx context.Context, u *entity.User) error
	Search(ctx context.Context, q string, size int) ([]search.UserDocument, error)
}

type AuthService struct {
	Users     repository.UserRepository
	Custodian service.PasswordCustodian
	Tokens    service.TokenService
	Publisher Publisher // optional
	Directory Directory // optional
	Brand     mailtpl.Brand
	Logger    *logrus.Logger

	now func() time.Time

	decoyOnce sync.Once
	decoy     string
}

func NewAuthService(users repository.UserRepository, custodian service.PasswordCustodian, tokens service.TokenService, logger *logrus.Logger) *AuthService {
	s := &AuthService{
		Users:     users,
		Custodian: custodian,
		Tokens:    tokens,
		Logger:    logger,
		now:       time.Now,
	}
	s.decoyDigest()
	return s
}

// decoyDigest is a digest at the custodian's cost that no answer matches.
func (s *AuthService) decoyDigest() string {
	s.decoyOnce.Do(func() {
		d, err := s.Custodian.Hash(uuid.NewString())
		if err != nil {
			helpers.LogError(s.Logger, "hash decoy digest failed", err, nil)
			return
		}
		s.decoy = d
	})
	return s.decoy
}

func (s *AuthService) compareDecoy(plain string) {
	if d := s.decoyDigest(); d != "" {
		_, _ = s.Custodian.Verify(plain, d)
	}
}

// WithNotifications enables account emails through p.
func (s *AuthService) WithNotifications(p Publisher, brand mailtpl.Brand) *AuthService {
	s.Publisher = p
	s.Brand = brand
	return s
}

func (s *AuthService) WithDirectory(d Directory) *AuthService {
	s.Directory = d
	return s
}

// Inputs carry raw request fields. A nil pointer is an absent field.
type RegisterInput struct {
	Name     *string
	Email    *string
	Password *string
	Phone    *string
	Address  *string
	DOB      *string
	Answer   *string
	Client   ClientInfo
}

type LoginInput struct {
	Email    *string
	Password *string
	Client   ClientInfo
}

type ForgotPasswordInput struct {
	Email       *string
	Answer      *string
	NewPassword *string
	Client      ClientInfo
}

type ProfileInput struct {
	Name     *string
	Phone    *string
	Address  *string
	Password *string
	Client   ClientInfo
}

type LoginResult struct {
	User      *entity.User
	Token     string
	ExpiresAt time.Time
}

// unexpected logs err and hides it behind the generic failure.
func (s *AuthService) unexpected(msg string, err error, fields logrus.Fields) error {
	count(statUnexpected)
	helpers.LogError(s.Logger, msg, err, fields)
	return apperror.Unexpected(err)
}

func rejected(err error) error {
	if err != nil {
		count(statRejectedInput)
	}
	return err
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	name, email, password := f("name", in.Name), f("email", in.Email), f("password", in.Password)
	phone, address, dob, answer := f("phone", in.Phone), f("address", in.Address), f("DOB", in.DOB), f("answer", in.Answer)
	all := []field{name, email, password, phone, address, dob, answer}

	if err := rejected(requirePresent(all...)); err != nil {
		return nil, err
	}
	if err := rejected(requireNotBlank(all...)); err != nil {
		return nil, err
	}
	emailLower := validation.CanonicalEmail(email.get())
	answerLower := validation.CanonicalAnswer(answer.get())
	now := s.now()

	err := firstErr(
		func() error { return requireEmail(emailLower) },
		func() error { return requirePhone(phone.get()) },
		func() error { return requireDOB(dob.get(), now) },
		func() error {
			return requireClean(name.get(), emailLower, password.get(), phone.get(), address.get(), dob.get(), answerLower)
		},
		func() error { return requireMaxChars(name, MaxNameLength) },
		func() error { return requireMaxChars(address, MaxAddressLength) },
		func() error { return requireMaxChars(answer, MaxAnswerLength) },
		func() error { return requireMaxBytes(answer, answerLower, MaxAnswerBytes) },
		func() error { return requirePasswordBytes(password) },
	)
	if err := rejected(err); err != nil {
		return nil, err
	}

	if _, err := s.Users.FindByEmail(ctx, emailLower); err == nil {
		count(statRegisterDuplicate)
		return nil, apperror.New(apperror.KindDuplicateEmail, apperror.MsgAlreadyRegistered)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, s.unexpected("register lookup failed", err, nil)
	}

	pwDigest, err := s.Custodian.Hash(password.get())
	if err != nil {
		return nil, s.unexpected("hash password failed", err, nil)
	}
	answerDigest, err := s.Custodian.Hash(answerLower)
	if err != nil {
		return nil, s.unexpected("hash answer failed", err, nil)
	}
	birth, err := validation.ParseDOB(dob.get())
	if err != nil {
		return nil, s.unexpected("parse dob failed", err, nil)
	}

	u := &entity.User{
		ID:       uuid.NewString(),
		Name:     name.get(),
		Email:    emailLower,
		Phone:    phone.get(),
		Address:  address.get(),
		DOB:      birth,
		Answer:   answerDigest,
		Password: pwDigest,
		Role:     entity.RoleUser,
	}
	// The insert completes even if the client goes away.
	writeCtx := context.WithoutCancel(ctx)
	if err := s.Users.Create(writeCtx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			count(statRegisterDuplicate)
			return nil, apperror.New(apperror.KindDuplicateEmail, apperror.MsgAlreadyRegistered)
		}
		return nil, s.unexpected("create user failed", err, logrus.Fields{"user_id": u.ID})
	}
	count(statRegisterCreated)

	s.index(writeCtx, u)
	s.notifyWelcome(ctx, u, in.Client)
	return u, nil
}

// Login walks Submitted → EmailChecked → PasswordChecked → Issued, or stops
// at the first rejection.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email, password := f("email", in.Email), f("password", in.Password)

	if err := rejected(requirePresent(email, password)); err != nil {
		return nil, err
	}
	if err := rejected(requireNotBlank(email, password)); err != nil {
		return nil, err
	}
	emailLower := validation.CanonicalEmail(email.get())
	err := firstErr(
		func() error { return requireEmail(emailLower) },
		func() error { return requireClean(emailLower, password.get()) },
		func() error { return requirePasswordBytes(password) },
	)
	if err := rejected(err); err != nil {
		return nil, err
	}

	u, err := s.Users.FindByEmail(ctx, emailLower)
	if errors.Is(err, repository.ErrUserNotFound) {
		count(statLoginUnknownEmail)
		return nil, apperror.ForField(apperror.KindEmailNotRegistered, "email", apperror.MsgEmailNotRegistered)
	}
	if err != nil {
		return nil, s.unexpected("login lookup failed", err, nil)
	}

	match, err := s.Custodian.Verify(password.get(), u.Password)
	if err != nil {
		return nil, s.unexpected("verify password failed", err, logrus.Fields{"user_id": u.ID})
	}
	if !match {
		count(statLoginBadPassword)
		return nil, apperror.New(apperror.KindInvalidPassword, apperror.MsgInvalidPassword)
	}

	token, exp, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return nil, s.unexpected("issue token failed", err, logrus.Fields{"user_id": u.ID})
	}
	count(statLoginIssued)

	s.notifyLogin(ctx, u, in.Client)
	return &LoginResult{User: u, Token: token, ExpiresAt: exp}, nil
}

// ForgotPassword answers an unknown email and a wrong answer identically.
func (s *AuthService) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	email, answer, newPassword := f("email", in.Email), f("answer", in.Answer), f("newPassword", in.NewPassword)

	if err := rejected(requirePresent(email, answer, newPassword)); err != nil {
		return err
	}
	if err := rejected(requireNotBlank(email, answer, newPassword)); err != nil {
		return err
	}
	emailLower := validation.CanonicalEmail(email.get())
	answerLower := validation.CanonicalAnswer(answer.get())
	err := firstErr(
		func() error { return requireEmail(emailLower) },
		func() error { return requireClean(emailLower, answerLower, newPassword.get()) },
		func() error { return requireMaxChars(answer, MaxAnswerLength) },
		func() error { return requireMaxBytes(answer, answerLower, MaxAnswerBytes) },
		func() error { return requirePasswordBytes(newPassword) },
	)
	if err := rejected(err); err != nil {
		return err
	}

	wrong := apperror.New(apperror.KindWrongEmailOrAnswer, apperror.MsgWrongEmailOrAnswer)

	u, err := s.Users.FindByEmail(ctx, emailLower)
	if errors.Is(err, repository.ErrUserNotFound) {
		// Same bcrypt work as a known email, so timing does not tell them apart.
		s.compareDecoy(answerLower)
		count(statResetRejected)
		return wrong
	}
	if err != nil {
		return s.unexpected("reset lookup failed", err, nil)
	}

	match, err := s.Custodian.Verify(answerLower, u.Answer)
	if err != nil {
		return s.unexpected("verify answer failed", err, logrus.Fields{"user_id": u.ID})
	}
	if !match {
		count(statResetRejected)
		return wrong
	}

	digest, err := s.Custodian.Hash(newPassword.get())
	if err != nil {
		return s.unexpected("hash password failed", err, logrus.Fields{"user_id": u.ID})
	}
	updated, err := s.Users.UpdatePassword(context.WithoutCancel(ctx), u.ID, digest)
	if err != nil {
		return s.unexpected("update password failed", err, logrus.Fields{"user_id": u.ID})
	}
	count(statResetDone)

	s.notifyPasswordReset(ctx, updated, in.Client)
	return nil
}

// UpdateProfile changes the supplied subset of name, phone, address and
// password on the signed-in user. Empty fields keep their stored value.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*entity.User, error) {
	name, phone, address, password := f("name", in.Name), f("phone", in.Phone), f("address", in.Address), f("password", in.Password)

	var given []field
	for _, fl := range []field{name, phone, address, password} {
		if fl.supplied() {
			given = append(given, fl)
		}
	}
	if err := rejected(requireNotBlank(given...)); err != nil {
		return nil, err
	}

	var values []string
	for _, fl := range given {
		values = append(values, fl.get())
	}
	checks := []func() error{}
	if phone.supplied() {
		checks = append(checks, func() error { return requirePhone(phone.get()) })
	}
	checks = append(checks, func() error { return requireClean(values...) })
	if name.supplied() {
		checks = append(checks, func() error { return requireMaxChars(name, MaxNameLength) })
	}
	if address.supplied() {
		checks = append(checks, func() error { return requireMaxChars(address, MaxAddressLength) })
	}
	if password.supplied() {
		checks = append(checks,
			func() error { return requireMinPassword(password) },
			func() error { return requirePasswordBytes(password) },
		)
	}
	if err := rejected(firstErr(checks...)); err != nil {
		return nil, err
	}

	current, err := s.Users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.New(apperror.KindNotFound, "User not found")
	}
	if err != nil {
		return nil, s.unexpected("profile lookup failed", err, logrus.Fields{"user_id": userID})
	}

	var patch entity.ProfilePatch
	var changes []string
	if name.supplied() && name.get() != current.Name {
		patch.Name = name.value
		changes = append(changes, "name")
	}
	if phone.supplied() && phone.get() != current.Phone {
		patch.Phone = phone.value
		changes = append(changes, "phone")
	}
	if address.supplied() && address.get() != current.Address {
		patch.Address = address.value
		changes = append(changes, "address")
	}
	if password.supplied() {
		digest, err := s.Custodian.Hash(password.get())
		if err != nil {
			return nil, s.unexpected("hash password failed", err, logrus.Fields{"user_id": userID})
		}
		patch.Password = &digest
		changes = append(changes, "password")
	}
	if patch.Empty() {
		return current, nil
	}

	writeCtx := context.WithoutCancel(ctx)
	updated, err := s.Users.UpdateProfile(writeCtx, userID, patch)
	if err != nil {
		return nil, s.unexpected("update profile failed", err, logrus.Fields{"user_id": userID})
	}
	count(statProfileUpdated)

	s.index(writeCtx, updated)
	s.notifyProfileUpdated(ctx, updated, changes, in.Client)
	return updated, nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.New(apperror.KindNotFound, "User not found")
	}
	if err != nil {
		return nil, s.unexpected("profile lookup failed", err, logrus.Fields{"user_id": userID})
	}
	return u, nil
}

// SearchUsers queries the admin directory. Without a directory it finds
// nothing.
func (s *AuthService) SearchUsers(ctx context.Context, q string, size int) ([]search.UserDocument, error) {
	if s.Directory == nil {
		return []search.UserDocument{}, nil
	}
	docs, err := s.Directory.Search(ctx, q, size)
	if err != nil {
		return nil, s.unexpected("directory search failed", err, logrus.Fields{"q": q})
	}
	return docs, nil
}

func (s *AuthService) index(ctx context.Context, u *entity.User) {
	if s.Directory == nil {
		return
	}
	if err := s.Directory.IndexUser(ctx, u); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
	}
}

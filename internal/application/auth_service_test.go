package application_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/storefront-auth/internal/application"
	"github.com/oksasatya/storefront-auth/internal/domain/apperror"
	"github.com/oksasatya/storefront-auth/internal/domain/entity"
	"github.com/oksasatya/storefront-auth/internal/domain/repository"
	"github.com/oksasatya/storefront-auth/internal/infrastructure/memory"
	"github.com/oksasatya/storefront-auth/internal/infrastructure/search"
	"github.com/oksasatya/storefront-auth/pkg/helpers"
	"github.com/oksasatya/storefront-auth/pkg/mailer"
	mailtpl "github.com/oksasatya/storefront-auth/pkg/mailer/templates"
)

func ptr(s string) *string { return &s }

type recordingPublisher struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
	err  error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, body.(mailer.EmailJob))
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.jobs))
	for _, j := range p.jobs {
		out = append(out, j.Data["Type"].(string))
	}
	return out
}

type recordingDirectory struct {
	indexed []string
	docs    []search.UserDocument
	err     error
}

func (d *recordingDirectory) IndexUser(_ context.Context, u *entity.User) error {
	d.indexed = append(d.indexed, u.ID)
	return d.err
}

func (d *recordingDirectory) Search(context.Context, string, int) ([]search.UserDocument, error) {
	return d.docs, d.err
}

type fixture struct {
	svc   *application.AuthService
	users *memory.UserRepository
	jwt   *helpers.JWTManager
	pub   *recordingPublisher
	dir   *recordingDirectory
	hook  *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, hook := test.NewNullLogger()
	users := memory.NewUserRepository()
	jwt := helpers.NewJWTManager("test-secret", time.Hour)
	pub := &recordingPublisher{}
	dir := &recordingDirectory{}
	svc := application.NewAuthService(users, helpers.NewBcryptCustodian(bcrypt.MinCost), jwt, logger).
		WithNotifications(pub, mailtpl.Brand{AppName: "Storefront"}).
		WithDirectory(dir)
	return &fixture{svc: svc, users: users, jwt: jwt, pub: pub, dir: dir, hook: hook}
}

func validRegister() application.RegisterInput {
	return application.RegisterInput{
		Name:     ptr("Test"),
		Email:    ptr("Test@Example.com"),
		Password: ptr("pass"),
		Phone:    ptr("1234567890"),
		Address:  ptr("123 Street"),
		DOB:      ptr("2000-01-01"),
		Answer:   ptr("Football"),
	}
}

func TestRegister_CreatesCanonicalUser(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	u, err := fx.svc.Register(ctx, validRegister())
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", u.Email)
	assert.Equal(t, entity.RoleUser, u.Role)
	assert.NotEqual(t, "pass", u.Password)
	assert.NotEqual(t, "football", u.Answer)
	assert.Equal(t, "2000-01-01", u.DOB.Format("2006-01-02"))

	stored, err := fx.users.FindByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, stored.ID)

	assert.Equal(t, []string{u.ID}, fx.dir.indexed)
	assert.Equal(t, []string{mailtpl.Welcome}, fx.pub.types())
	assert.Equal(t, "test@example.com", fx.pub.jobs[0].To)
}

func TestRegister_Duplicate(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	_, err := fx.svc.Register(ctx, validRegister())
	require.NoError(t, err)

	again := validRegister()
	again.Email = ptr("  TEST@example.COM ")
	_, err = fx.svc.Register(ctx, again)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindDuplicateEmail))
	assert.Equal(t, apperror.MsgAlreadyRegistered, err.(*apperror.Error).Message)
}

// raceRepo reports the email as free on lookup, then loses the insert race.
type raceRepo struct {
	*memory.UserRepository
}

func (r raceRepo) FindByEmail(context.Context, string) (*entity.User, error) {
	return nil, repository.ErrUserNotFound
}

func (r raceRepo) Create(context.Context, *entity.User) error {
	return repository.ErrDuplicateEmail
}

func TestRegister_InsertRaceMapsToDuplicate(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := application.NewAuthService(raceRepo{memory.NewUserRepository()}, helpers.NewBcryptCustodian(bcrypt.MinCost), helpers.NewJWTManager("s", time.Hour), logger)

	_, err := svc.Register(context.Background(), validRegister())
	assert.True(t, apperror.Is(err, apperror.KindDuplicateEmail))
}

func TestRegister_PipelineOrder(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *application.RegisterInput)
		kind   apperror.Kind
		msg    string
	}{
		{"missing name", func(in *application.RegisterInput) { in.Name = nil }, apperror.KindMissingField, "Name is Required"},
		{"empty email", func(in *application.RegisterInput) { in.Email = ptr("") }, apperror.KindMissingField, "Email is Required"},
		{"missing phone", func(in *application.RegisterInput) { in.Phone = nil }, apperror.KindMissingField, "Phone no is Required"},
		{"missing beats whitespace", func(in *application.RegisterInput) {
			in.Name = ptr("   ")
			in.Answer = nil
		}, apperror.KindMissingField, "Answer is Required"},
		{"whitespace address", func(in *application.RegisterInput) { in.Address = ptr(" \t ") }, apperror.KindWhitespaceOnly, "Address cannot be empty or whitespace"},
		{"bad email", func(in *application.RegisterInput) { in.Email = ptr("nope") }, apperror.KindMalformed, "Invalid email format"},
		{"short phone", func(in *application.RegisterInput) { in.Phone = ptr("123456") }, apperror.KindMalformed, "Phone number must contain 7 to 15 digits only"},
		{"future dob", func(in *application.RegisterInput) {
			in.DOB = ptr(time.Now().AddDate(0, 0, 2).Format("2006-01-02"))
		}, apperror.KindMalformed, "DOB cannot be in the future"},
		{"malformed beats hygiene", func(in *application.RegisterInput) {
			in.Name = ptr("<script>")
			in.Phone = ptr("12")
		}, apperror.KindMalformed, "Phone number must contain 7 to 15 digits only"},
		{"injection in name", func(in *application.RegisterInput) { in.Name = ptr("'; DROP TABLE users; --") }, apperror.KindInvalidCharacters, apperror.MsgInvalidCharacters},
		{"xss in answer", func(in *application.RegisterInput) { in.Answer = ptr("<img onerror=x>") }, apperror.KindInvalidCharacters, apperror.MsgInvalidCharacters},
		{"xss in password", func(in *application.RegisterInput) { in.Password = ptr("javascript:1") }, apperror.KindInvalidCharacters, apperror.MsgInvalidCharacters},
		{"hygiene beats bounds", func(in *application.RegisterInput) {
			in.Name = ptr(strings.Repeat("a", 101))
			in.Address = ptr("<script>")
		}, apperror.KindInvalidCharacters, apperror.MsgInvalidCharacters},
		{"long name", func(in *application.RegisterInput) { in.Name = ptr(strings.Repeat("a", 101)) }, apperror.KindOutOfBounds, "Name must be at most 100 characters"},
		{"long address", func(in *application.RegisterInput) { in.Address = ptr(strings.Repeat("a", 501)) }, apperror.KindOutOfBounds, "Address must be at most 500 characters"},
		{"long password", func(in *application.RegisterInput) { in.Password = ptr(strings.Repeat("p", 73)) }, apperror.KindOutOfBounds, "Password must be at most 72 bytes"},
		{"answer over bcrypt limit", func(in *application.RegisterInput) { in.Answer = ptr(strings.Repeat("a", 73)) }, apperror.KindOutOfBounds, "Answer must be at most 72 bytes"},
		{"multibyte answer over bcrypt limit", func(in *application.RegisterInput) { in.Answer = ptr(strings.Repeat("é", 37)) }, apperror.KindOutOfBounds, "Answer must be at most 72 bytes"},
		{"long answer", func(in *application.RegisterInput) { in.Answer = ptr(strings.Repeat("a", 101)) }, apperror.KindOutOfBounds, "Answer must be at most 100 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			in := validRegister()
			tt.mutate(&in)

			_, err := fx.svc.Register(context.Background(), in)
			require.Error(t, err)
			var appErr *apperror.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.kind, appErr.Kind)
			assert.Equal(t, tt.msg, appErr.Message)

			_, lookupErr := fx.users.FindByEmail(context.Background(), "test@example.com")
			assert.ErrorIs(t, lookupErr, repository.ErrUserNotFound, "store unchanged")
			assert.Empty(t, fx.pub.types())
		})
	}
}

func TestRegister_Boundaries(t *testing.T) {
	fx := newFixture(t)
	in := validRegister()
	in.Name = ptr(strings.Repeat("a", 100))
	in.Phone = ptr(strings.Repeat("9", 15))
	in.DOB = ptr(time.Now().Format("2006-01-02"))
	in.Answer = ptr(strings.Repeat("a", 72))
	in.Password = ptr(strings.Repeat("p", 72))
	_, err := fx.svc.Register(context.Background(), in)
	require.NoError(t, err)

	err = fx.svc.ForgotPassword(context.Background(), application.ForgotPasswordInput{
		Email: ptr("test@example.com"), Answer: ptr(strings.Repeat("A", 72)), NewPassword: ptr("np1"),
	})
	require.NoError(t, err)
}

func TestForgotPassword_AnswerOverBcryptLimit(t *testing.T) {
	fx := newFixture(t)
	err := fx.svc.ForgotPassword(context.Background(), application.ForgotPasswordInput{
		Email: ptr("test@example.com"), Answer: ptr(strings.Repeat("a", 80)), NewPassword: ptr("np1"),
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindOutOfBounds, apperror.KindOf(err))
	assert.Equal(t, "Answer must be at most 72 bytes", err.(*apperror.Error).Message)
}

func TestLogin_RoundTripAndCaseInsensitivity(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	u, err := fx.svc.Register(ctx, validRegister())
	require.NoError(t, err)

	res, err := fx.svc.Login(ctx, application.LoginInput{
		Email:    ptr("test@example.com"),
		Password: ptr("pass"),
		Client:   application.ClientInfo{IP: "10.0.0.1", UserAgent: "go-test"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	assert.Equal(t, u.ID, res.User.ID)

	claims, ok := fx.jwt.Verify(res.Token)
	require.True(t, ok)
	assert.Equal(t, u.ID, claims.UserID)

	assert.Equal(t, []string{mailtpl.Welcome, mailtpl.LoginNotification}, fx.pub.types())
	assert.Equal(t, "10.0.0.1", fx.pub.jobs[1].Data["IP"])
}

func TestLogin_Rejections(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	_, err := fx.svc.Register(ctx, validRegister())
	require.NoError(t, err)

	_, err = fx.svc.Login(ctx, application.LoginInput{Email: ptr("test@example.com"), Password: ptr("wrong")})
	assert.True(t, apperror.Is(err, apperror.KindInvalidPassword))
	assert.Equal(t, "Invalid Password", err.(*apperror.Error).Message)

	_, err = fx.svc.Login(ctx, application.LoginInput{Email: ptr("nobody@example.com"), Password: ptr("pass")})
	assert.True(t, apperror.Is(err, apperror.KindEmailNotRegistered))

	_, err = fx.svc.Login(ctx, application.LoginInput{Email: ptr("test@example.com")})
	assert.True(t, apperror.Is(err, apperror.KindMissingField))

	_, err = fx.svc.Login(ctx, application.LoginInput{Email: ptr("bad"), Password: ptr("pass")})
	assert.True(t, apperror.Is(err, apperror.KindMalformed))
}

// brokenCustodian fails every verification.
type brokenCustodian struct{ *helpers.BcryptCustodian }

func (brokenCustodian) Verify(string, string) (bool, error) {
	return false, errors.New("corrupt digest")
}

func TestLogin_CustodianFailureIsUnexpected(t *testing.T) {
	logger, hook := test.NewNullLogger()
	users := memory.NewUserRepository()
	require.NoError(t, users.Create(context.Background(), &entity.User{Email: "test@example.com", Password: "x"}))
	svc := application.NewAuthService(users, brokenCustodian{helpers.NewBcryptCustodian(bcrypt.MinCost)}, helpers.NewJWTManager("s", time.Hour), logger)

	_, err := svc.Login(context.Background(), application.LoginInput{Email: ptr("test@example.com"), Password: ptr("pass")})
	require.Error(t, err)
	assert.Equal(t, apperror.KindUnexpected, apperror.KindOf(err))
	assert.Equal(t, apperror.MsgUnexpected, err.(*apperror.Error).Message)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestForgotPassword_ResetMonotonicity(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	_, err := fx.svc.Register(ctx, validRegister())
	require.NoError(t, err)

	err = fx.svc.ForgotPassword(ctx, application.ForgotPasswordInput{
		Email: ptr("TEST@example.com"), Answer: ptr("  football "), NewPassword: ptr("np1"),
	})
	require.NoError(t, err)

	_, err = fx.svc.Login(ctx, application.LoginInput{Email: ptr("test@example.com"), Password: ptr("pass")})
	assert.True(t, apperror.Is(err, apperror.KindInvalidPassword))

	res, err := fx.svc.Login(ctx, application.LoginInput{Email: ptr("test@example.com"), Password: ptr("np1")})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	assert.Contains(t, fx.pub.types(), mailtpl.PasswordReset)
}

func TestForgotPassword_DoesNotDiscloseExistence(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	_, err := fx.svc.Register(ctx, validRegister())
	require.NoError(t, err)

	wrongAnswer := fx.svc.ForgotPassword(ctx, application.ForgotPasswordInput{
		Email: ptr("test@example.com"), Answer: ptr("tennis"), NewPassword: ptr("np1"),
	})
	unknown := fx.svc.ForgotPassword(ctx, application.ForgotPasswordInput{
		Email: ptr("ghost@example.com"), Answer: ptr("football"), NewPassword: ptr("np1"),
	})
	require.Error(t, wrongAnswer)
	require.Error(t, unknown)
	assert.Equal(t, wrongAnswer.Error(), unknown.Error())
	assert.True(t, apperror.Is(unknown, apperror.KindWrongEmailOrAnswer))

	missing := fx.svc.ForgotPassword(ctx, application.ForgotPasswordInput{Email: ptr("test@example.com"), Answer: ptr("x")})
	assert.Equal(t, "New Password is Required", missing.(*apperror.Error).Message)
}

// countingCustodian records the digests it is asked to verify against.
type countingCustodian struct {
	*helpers.BcryptCustodian
	mu       sync.Mutex
	verified []string
}

func (c *countingCustodian) Verify(plain, digest string) (bool, error) {
	c.mu.Lock()
	c.verified = append(c.verified, digest)
	c.mu.Unlock()
	return c.BcryptCustodian.Verify(plain, digest)
}

func TestForgotPassword_UnknownEmailStillComparesDigest(t *testing.T) {
	logger, _ := test.NewNullLogger()
	custodian := &countingCustodian{BcryptCustodian: helpers.NewBcryptCustodian(bcrypt.MinCost)}
	svc := application.NewAuthService(memory.NewUserRepository(), custodian, helpers.NewJWTManager("s", time.Hour), logger)

	err := svc.ForgotPassword(context.Background(), application.ForgotPasswordInput{
		Email: ptr("ghost@example.com"), Answer: ptr("football"), NewPassword: ptr("np1"),
	})
	assert.True(t, apperror.Is(err, apperror.KindWrongEmailOrAnswer))

	require.Len(t, custodian.verified, 1)
	cost, err := bcrypt.Cost([]byte(custodian.verified[0]))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestUpdateProfile(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	u, err := fx.svc.Register(ctx, validRegister())
	require.NoError(t, err)
	digest := u.Password

	t.Run("partial update keeps digest", func(t *testing.T) {
		got, err := fx.svc.UpdateProfile(ctx, u.ID, application.ProfileInput{Name: ptr("Renamed"), Password: ptr("")})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
		assert.Equal(t, "1234567890", got.Phone)
		assert.Equal(t, digest, got.Password)
	})

	t.Run("short password rejected", func(t *testing.T) {
		_, err := fx.svc.UpdateProfile(ctx, u.ID, application.ProfileInput{Password: ptr("12345")})
		assert.True(t, apperror.Is(err, apperror.KindOutOfBounds))
	})

	t.Run("whitespace rejected", func(t *testing.T) {
		_, err := fx.svc.UpdateProfile(ctx, u.ID, application.ProfileInput{Address: ptr("   ")})
		assert.True(t, apperror.Is(err, apperror.KindWhitespaceOnly))
	})

	t.Run("hygiene applies", func(t *testing.T) {
		_, err := fx.svc.UpdateProfile(ctx, u.ID, application.ProfileInput{Address: ptr("<script>x</script>")})
		assert.True(t, apperror.Is(err, apperror.KindInvalidCharacters))
	})

	t.Run("bad phone rejected", func(t *testing.T) {
		_, err := fx.svc.UpdateProfile(ctx, u.ID, application.ProfileInput{Phone: ptr("12ab")})
		assert.True(t, apperror.Is(err, apperror.KindMalformed))
	})

	t.Run("new password works for login", func(t *testing.T) {
		_, err := fx.svc.UpdateProfile(ctx, u.ID, application.ProfileInput{Password: ptr("secret1")})
		require.NoError(t, err)
		_, err = fx.svc.Login(ctx, application.LoginInput{Email: ptr("test@example.com"), Password: ptr("secret1")})
		require.NoError(t, err)
	})

	t.Run("notification lists changed fields", func(t *testing.T) {
		var last mailer.EmailJob
		for _, j := range fx.pub.jobs {
			if j.Data["Type"] == mailtpl.ProfileUpdated {
				last = j
			}
		}
		assert.Equal(t, []any{"password"}, last.Data["Changes"])
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := fx.svc.UpdateProfile(ctx, "missing", application.ProfileInput{Name: ptr("x")})
		assert.True(t, apperror.Is(err, apperror.KindNotFound))
	})
}

func TestNotificationFailureIsNotSurfaced(t *testing.T) {
	fx := newFixture(t)
	fx.pub.err = errors.New("broker down")
	before := application.Stat("notification_failed")

	_, err := fx.svc.Register(context.Background(), validRegister())
	require.NoError(t, err)
	assert.Equal(t, before+1, application.Stat("notification_failed"))
	require.NotNil(t, fx.hook.LastEntry())
	assert.Equal(t, "enqueue notification failed", fx.hook.LastEntry().Message)
}

func TestSearchUsers(t *testing.T) {
	fx := newFixture(t)
	fx.dir.docs = []search.UserDocument{{ID: "1", Email: "a@b.co"}}
	docs, err := fx.svc.SearchUsers(context.Background(), "a@b.co", 5)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	fx.dir.err = errors.New("es down")
	_, err = fx.svc.SearchUsers(context.Background(), "a", 5)
	assert.Equal(t, apperror.KindUnexpected, apperror.KindOf(err))

	logger, _ := test.NewNullLogger()
	bare := application.NewAuthService(memory.NewUserRepository(), helpers.NewBcryptCustodian(bcrypt.MinCost), fx.jwt, logger)
	docs, err = bare.SearchUsers(context.Background(), "a", 5)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestWorkflowCounters(t *testing.T) {
	fx := newFixture(t)
	created := application.Stat("register_created")
	badPw := application.Stat("login_bad_password")

	_, err := fx.svc.Register(context.Background(), validRegister())
	require.NoError(t, err)
	_, _ = fx.svc.Login(context.Background(), application.LoginInput{Email: ptr("test@example.com"), Password: ptr("nope")})

	assert.Equal(t, created+1, application.Stat("register_created"))
	assert.Equal(t, badPw+1, application.Stat("login_bad_password"))
}

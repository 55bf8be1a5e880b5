package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/listing-service/internal/config"
	"github.com/spec-kit/listing-service/internal/domain"
)

type fakeDirectory struct {
	users map[int64]*domain.User
	err   error
	calls int
}

func (f *fakeDirectory) GetByID(_ context.Context, id int64) (*domain.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func newDirectory(users ...*domain.User) *fakeDirectory {
	dir := &fakeDirectory{users: map[int64]*domain.User{}}
	for _, u := range users {
		dir.users[u.ID] = u
	}
	return dir
}

var (
	buyer   = &domain.User{ID: 1, Name: "Bea Buyer", UserType: domain.UserTypeBuyer}
	realtor = &domain.User{ID: 5, Name: "Rita Realtor", UserType: domain.UserTypeRealtor}
	admin   = &domain.User{ID: 7, Name: "Ada Admin", UserType: domain.UserTypeAdmin}
)

func bearer(t *testing.T, tokens *TokenManager, user *domain.User) string {
	t.Helper()
	token, _, err := tokens.GenerateToken(user.ID, user.Name)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return "Bearer " + token
}

func TestDecideUndeclaredRolesDeniesByDefault(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	tokens := newTestTokens(clock)
	dir := newDirectory(buyer, realtor, admin)
	guard := NewGuard(tokens, dir, "", nil)

	for _, user := range []*domain.User{buyer, realtor, admin} {
		for _, roles := range [][]domain.UserType{nil, {}} {
			decision := guard.Decide(context.Background(), roles, bearer(t, tokens, user))
			if decision.Allowed() {
				t.Fatalf("expected deny for undeclared roles, user %d", user.ID)
			}
			if decision.Reason != ReasonNoRolesDeclared {
				t.Fatalf("unexpected reason %q", decision.Reason)
			}
		}
	}
	if decision := guard.Decide(context.Background(), nil, ""); decision.Allowed() {
		t.Fatal("expected deny without credentials")
	}
	if dir.calls != 0 {
		t.Fatalf("directory must not be consulted, got %d calls", dir.calls)
	}
}

func TestDecideUndeclaredRolesAllowPolicy(t *testing.T) {
	tokens := newTestTokens(&fakeClock{now: time.Now()})
	guard := NewGuard(tokens, newDirectory(), config.UndeclaredRolesAllow, nil)

	if !guard.Decide(context.Background(), nil, "").Allowed() {
		t.Fatal("expected allow under explicit allow policy")
	}
}

func TestDecideRoleMembership(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	tokens := newTestTokens(clock)
	guard := NewGuard(tokens, newDirectory(buyer, realtor, admin), config.UndeclaredRolesDeny, nil)

	realtorOrAdmin := []domain.UserType{domain.UserTypeRealtor, domain.UserTypeAdmin}
	cases := []struct {
		name   string
		user   *domain.User
		roles  []domain.UserType
		allow  bool
		reason DenyReason
	}{
		{"realtor creates home", realtor, realtorOrAdmin, true, ReasonNone},
		{"admin creates home", admin, realtorOrAdmin, true, ReasonNone},
		{"buyer creates home", buyer, realtorOrAdmin, false, ReasonRoleNotPermitted},
		{"buyer inquires", buyer, []domain.UserType{domain.UserTypeBuyer}, true, ReasonNone},
		{"realtor inquires", realtor, []domain.UserType{domain.UserTypeBuyer}, false, ReasonRoleNotPermitted},
		{"admin reads messages", admin, []domain.UserType{domain.UserTypeRealtor}, false, ReasonRoleNotPermitted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := guard.Decide(context.Background(), tc.roles, bearer(t, tokens, tc.user))
			if decision.Allowed() != tc.allow {
				t.Fatalf("allowed = %v, want %v", decision.Allowed(), tc.allow)
			}
			if decision.Reason != tc.reason {
				t.Fatalf("reason = %q, want %q", decision.Reason, tc.reason)
			}
			if tc.allow && decision.User.ID != tc.user.ID {
				t.Fatalf("unexpected user %+v", decision.User)
			}
		})
	}
}

func TestDecideExpiredTokenDenied(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	tokens := newTestTokens(clock)
	guard := NewGuard(tokens, newDirectory(admin), config.UndeclaredRolesDeny, nil)
	header := bearer(t, tokens, admin)

	clock.Advance(16 * time.Minute)
	decision := guard.Decide(context.Background(), []domain.UserType{domain.UserTypeAdmin}, header)
	if decision.Allowed() || decision.Reason != ReasonInvalidToken {
		t.Fatalf("expected invalid token deny, got %+v", decision)
	}
}

func TestDecideMalformedHeaders(t *testing.T) {
	tokens := newTestTokens(&fakeClock{now: time.Now()})
	guard := NewGuard(tokens, newDirectory(buyer), config.UndeclaredRolesDeny, nil)
	token, _, err := tokens.GenerateToken(buyer.ID, buyer.Name)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	headers := []string{
		"",
		token,
		"Bearer",
		"Bearer ",
		"Bearer    ",
		"bearer " + token,
		"Basic " + token,
		"Token " + token,
		"Bearer " + token + " extra",
	}
	for _, header := range headers {
		decision := guard.Decide(context.Background(), []domain.UserType{domain.UserTypeBuyer}, header)
		if decision.Allowed() {
			t.Fatalf("expected deny for header %q", header)
		}
		if decision.Reason != ReasonMissingCredentials {
			t.Fatalf("header %q: unexpected reason %q", header, decision.Reason)
		}
	}

	if decision := guard.Decide(context.Background(), []domain.UserType{domain.UserTypeBuyer}, "Bearer junk"); decision.Reason != ReasonInvalidToken {
		t.Fatalf("expected invalid token, got %q", decision.Reason)
	}
}

func TestDecideUnknownUserAndDirectoryFailure(t *testing.T) {
	tokens := newTestTokens(&fakeClock{now: time.Now()})
	ghost := &domain.User{ID: 99, Name: "Ghost", UserType: domain.UserTypeAdmin}
	roles := []domain.UserType{domain.UserTypeAdmin}

	guard := NewGuard(tokens, newDirectory(), config.UndeclaredRolesDeny, nil)
	if decision := guard.Decide(context.Background(), roles, bearer(t, tokens, ghost)); decision.Allowed() || decision.Reason != ReasonUnknownUser {
		t.Fatalf("expected unknown user deny, got %+v", decision)
	}

	broken := &fakeDirectory{err: errors.New("connection reset")}
	guard = NewGuard(tokens, broken, config.UndeclaredRolesDeny, nil)
	if decision := guard.Decide(context.Background(), roles, bearer(t, tokens, ghost)); decision.Allowed() || decision.Reason != ReasonDirectoryError {
		t.Fatalf("expected directory error deny, got %+v", decision)
	}
}

func TestDecideReconsultsDirectoryEveryCall(t *testing.T) {
	tokens := newTestTokens(&fakeClock{now: time.Now()})
	user := &domain.User{ID: 12, Name: "Switcher", UserType: domain.UserTypeRealtor}
	dir := newDirectory(user)
	guard := NewGuard(tokens, dir, config.UndeclaredRolesDeny, nil)
	header := bearer(t, tokens, user)
	roles := []domain.UserType{domain.UserTypeRealtor}

	if !guard.Decide(context.Background(), roles, header).Allowed() {
		t.Fatal("expected allow")
	}
	delete(dir.users, user.ID)
	if guard.Decide(context.Background(), roles, header).Allowed() {
		t.Fatal("expected deny once the user is gone")
	}
	if dir.calls != 2 {
		t.Fatalf("expected two lookups, got %d", dir.calls)
	}
}

func TestBearerToken(t *testing.T) {
	if token, ok := BearerToken("Bearer abc.def.ghi"); !ok || token != "abc.def.ghi" {
		t.Fatalf("unexpected result %q %v", token, ok)
	}
	if _, ok := BearerToken("Bearer "); ok {
		t.Fatal("empty token must be rejected")
	}
}

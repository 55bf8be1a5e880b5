// Package repotest provides in-memory repository implementations for tests.
package repotest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/listing-service/internal/domain"
	"github.com/spec-kit/listing-service/internal/repository"
)

// Store keeps users, homes, images and messages in maps. It satisfies every repository
// interface through its accessor methods.
type Store struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]domain.User
	homes    map[int64]domain.Home
	images   map[int64]domain.Image
	messages map[int64]domain.Message

	// Ops records mutating calls in order, e.g. "images.delete".
	Ops []string

	failures map[string]error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:    map[int64]domain.User{},
		homes:    map[int64]domain.Home{},
		images:   map[int64]domain.Image{},
		messages: map[int64]domain.Message{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Users returns the user repository view.
func (s *Store) Users() repository.UserRepository { return userStore{s} }

// Homes returns the home repository view.
func (s *Store) Homes() repository.HomeRepository { return homeStore{s} }

// Images returns the image repository view.
func (s *Store) Images() repository.ImageRepository { return imageStore{s} }

// Tx returns a TxManager that restores the store when the unit of work fails.
func (s *Store) Tx() repository.TxManager { return txStore{s} }

// FailOn makes the next call of op (for example "images.create") return err without
// touching the store.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures == nil {
		s.failures = map[string]error{}
	}
	s.failures[op] = err
}

// failure pops the injected error for op. Callers hold s.mu.
func (s *Store) failure(op string) error {
	err, ok := s.failures[op]
	if !ok {
		return nil
	}
	delete(s.failures, op)
	return err
}

// Messages returns the message repository view.
func (s *Store) Messages() repository.MessageRepository { return messageStore{s} }

// PutUser inserts a user with a fixed id.
func (s *Store) PutUser(user domain.User) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == 0 {
		user.ID = s.id()
	} else if user.ID > s.nextID {
		s.nextID = user.ID
	}
	s.users[user.ID] = user
	return &user
}

// PutHome inserts a home with a fixed id along with its images.
func (s *Store) PutHome(home domain.Home) *domain.Home {
	s.mu.Lock()
	defer s.mu.Unlock()
	if home.ID == 0 {
		home.ID = s.id()
	} else if home.ID > s.nextID {
		s.nextID = home.ID
	}
	for _, img := range home.Images {
		img.ID = s.id()
		img.HomeID = home.ID
		s.images[img.ID] = img
	}
	home.Images = nil
	s.homes[home.ID] = home
	return &home
}

// ImageCount returns the number of images stored for a home.
func (s *Store) ImageCount(homeID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, img := range s.images {
		if img.HomeID == homeID {
			n++
		}
	}
	return n
}

// HasHome reports whether a home exists.
func (s *Store) HasHome(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.homes[id]
	return ok
}

// MessagesFor returns stored messages for a home.
func (s *Store) MessagesFor(homeID int64) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Message
	for _, msg := range s.messages {
		if msg.HomeID == homeID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type txStore struct{ s *Store }

func (t txStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.s.mu.Lock()
	users, homes, images, messages := cloneMap(t.s.users), cloneMap(t.s.homes), cloneMap(t.s.images), cloneMap(t.s.messages)
	t.s.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.s.mu.Lock()
		t.s.users, t.s.homes, t.s.images, t.s.messages = users, homes, images, messages
		t.s.Ops = append(t.s.Ops, "tx.rollback")
		t.s.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[V any](m map[int64]V) map[int64]V {
	out := make(map[int64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type userStore struct{ s *Store }

func (u userStore) Create(_ context.Context, user *domain.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, existing := range u.s.users {
		if existing.Email == user.Email {
			return errors.New("duplicate key value violates unique constraint \"users_email_key\"")
		}
	}
	user.ID = u.s.id()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	u.s.users[user.ID] = *user
	return nil
}

func (u userStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (u userStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, user := range u.s.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type homeStore struct{ s *Store }

func (h homeStore) Create(_ context.Context, home *domain.Home) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	home.ID = h.s.id()
	home.ListedDate = time.Now()
	home.CreatedAt = home.ListedDate
	home.UpdatedAt = home.ListedDate
	stored := *home
	stored.Images = nil
	h.s.homes[home.ID] = stored
	h.s.Ops = append(h.s.Ops, "homes.create")
	return nil
}

func (h homeStore) Update(_ context.Context, home *domain.Home) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	if _, ok := h.s.homes[home.ID]; !ok {
		return pgx.ErrNoRows
	}
	home.UpdatedAt = time.Now()
	stored := *home
	stored.Images = nil
	h.s.homes[home.ID] = stored
	h.s.Ops = append(h.s.Ops, "homes.update")
	return nil
}

func (h homeStore) Delete(_ context.Context, id int64) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	if err := h.s.failure("homes.delete"); err != nil {
		return err
	}
	if _, ok := h.s.homes[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, img := range h.s.images {
		if img.HomeID == id {
			return errors.New("update or delete on table \"homes\" violates foreign key constraint")
		}
	}
	delete(h.s.homes, id)
	for msgID, msg := range h.s.messages {
		if msg.HomeID == id {
			delete(h.s.messages, msgID)
		}
	}
	h.s.Ops = append(h.s.Ops, "homes.delete")
	return nil
}

func (h homeStore) GetByID(_ context.Context, id int64) (*domain.Home, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	home, ok := h.s.homes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &home, nil
}

func (h homeStore) ListWithFilter(_ context.Context, filter repository.HomeFilter) ([]domain.Home, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	var result []domain.Home
	for _, home := range h.s.homes {
		if filter.City != nil && home.City != *filter.City {
			continue
		}
		if filter.MinPrice != nil && home.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && home.Price > *filter.MaxPrice {
			continue
		}
		if filter.PropertyType != nil && home.PropertyType != *filter.PropertyType {
			continue
		}
		if first, ok := h.s.firstImage(home.ID); ok {
			home.Images = []domain.Image{first}
		}
		result = append(result, home)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) firstImage(homeID int64) (domain.Image, bool) {
	var (
		first domain.Image
		found bool
	)
	for _, img := range s.images {
		if img.HomeID == homeID && (!found || img.ID < first.ID) {
			first, found = img, true
		}
	}
	return first, found
}

func (h homeStore) GetRealtorByHomeID(_ context.Context, id int64) (*domain.User, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	home, ok := h.s.homes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	realtor, ok := h.s.users[home.RealtorID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &realtor, nil
}

type imageStore struct{ s *Store }

func (i imageStore) CreateMany(_ context.Context, homeID int64, urls []string) ([]domain.Image, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	if err := i.s.failure("images.create"); err != nil {
		return nil, err
	}
	images := make([]domain.Image, 0, len(urls))
	for _, url := range urls {
		img := domain.Image{ID: i.s.id(), URL: url, HomeID: homeID, CreatedAt: time.Now()}
		i.s.images[img.ID] = img
		images = append(images, img)
	}
	i.s.Ops = append(i.s.Ops, "images.create")
	return images, nil
}

func (i imageStore) ListByHome(_ context.Context, homeID int64) ([]domain.Image, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	var out []domain.Image
	for _, img := range i.s.images {
		if img.HomeID == homeID {
			out = append(out, img)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (i imageStore) DeleteByHome(_ context.Context, homeID int64) error {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	for id, img := range i.s.images {
		if img.HomeID == homeID {
			delete(i.s.images, id)
		}
	}
	i.s.Ops = append(i.s.Ops, "images.delete")
	return nil
}

type messageStore struct{ s *Store }

func (m messageStore) Create(_ context.Context, msg *domain.Message) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	msg.ID = m.s.id()
	msg.CreatedAt = time.Now()
	m.s.messages[msg.ID] = *msg
	m.s.Ops = append(m.s.Ops, "messages.create")
	return nil
}

func (m messageStore) ListByHome(_ context.Context, homeID int64) ([]domain.MessageWithBuyer, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var msgs []domain.Message
	for _, msg := range m.s.messages {
		if msg.HomeID == homeID {
			msgs = append(msgs, msg)
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })

	out := make([]domain.MessageWithBuyer, 0, len(msgs))
	for _, msg := range msgs {
		buyer := m.s.users[msg.BuyerID]
		out = append(out, domain.MessageWithBuyer{
			Message: msg.Message,
			Buyer:   domain.Contact{Name: buyer.Name, Phone: buyer.Phone, Email: buyer.Email},
		})
	}
	return out, nil
}

package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/xjohnsondev/primal-backend/internal/apperror"
	"github.com/xjohnsondev/primal-backend/internal/model"
	"github.com/xjohnsondev/primal-backend/internal/patch"
	"github.com/xjohnsondev/primal-backend/internal/repository"
)

// =========================================================================
// FAKE STORE
// =========================================================================
//
// fakeStore implements the three repository interfaces in memory so the
// services can be tested without SQL. It mirrors the store's contract:
// NotFound for unknown rows, ErrDuplicate on a taken username, empty slices
// instead of nil.
//
// failWith, when set, is returned by every call, simulating a storage outage.

type favKey struct{ user, exercise int64 }

type fakeStore struct {
	users     map[string]*model.UserCredentials
	exercises map[int64]model.Exercise
	favorites map[favKey]bool
	nextID    int64

	// skipLookup makes GetUser report NotFound even for existing users, to
	// simulate a registration race that passes the pre-check.
	skipLookup bool
	failWith   error
	toggles    int
}

var (
	_ repository.UserRepository     = (*fakeStore)(nil)
	_ repository.ExerciseRepository = (*fakeStore)(nil)
	_ repository.FavoriteRepository = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     map[string]*model.UserCredentials{},
		exercises: map[int64]model.Exercise{},
		favorites: map[favKey]bool{},
	}
}

func (f *fakeStore) CreateUser(_ context.Context, u *model.UserCredentials) (*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	if _, taken := f.users[u.Username]; taken {
		return nil, fmt.Errorf("fake: %w", repository.ErrDuplicate)
	}
	f.nextID++
	stored := *u
	stored.ID = f.nextID
	f.users[u.Username] = &stored
	out := stored.User
	return &out, nil
}

func (f *fakeStore) GetUser(_ context.Context, username string) (*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.users[username]
	if !ok || f.skipLookup {
		return nil, apperror.NotFound("user", username)
	}
	out := u.User
	return &out, nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if u.ID == id {
			out := u.User
			return &out, nil
		}
	}
	return nil, apperror.NotFound("user", fmt.Sprint(id))
}

func (f *fakeStore) GetCredentials(_ context.Context, username string) (*model.UserCredentials, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.users[username]
	if !ok {
		return nil, apperror.NotFound("user", username)
	}
	out := *u
	return &out, nil
}

func (f *fakeStore) ListUsers(context.Context) ([]model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.User{}
	for _, u := range f.users {
		out = append(out, u.User)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (f *fakeStore) UpdateUser(_ context.Context, username string, set patch.Assignments) (*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	if len(set) == 0 {
		return nil, apperror.ValidationFailed("", "no updatable fields")
	}
	u, ok := f.users[username]
	if !ok {
		return nil, apperror.NotFound("user", username)
	}
	for _, a := range set {
		switch a.Column {
		case "first_name":
			u.FirstName = a.Value.(string)
		case "last_name":
			u.LastName = a.Value.(string)
		case "email":
			u.Email = a.Value.(string)
		case "password_hash":
			u.PasswordHash = a.Value.(string)
		case "is_admin":
			u.IsAdmin = a.Value.(bool)
		default:
			return nil, fmt.Errorf("fake: unexpected column %q", a.Column)
		}
	}
	out := u.User
	return &out, nil
}

func (f *fakeStore) DeleteUser(_ context.Context, username string) error {
	if f.failWith != nil {
		return f.failWith
	}
	u, ok := f.users[username]
	if !ok {
		return apperror.NotFound("user", username)
	}
	for k := range f.favorites {
		if k.user == u.ID {
			delete(f.favorites, k)
		}
	}
	delete(f.users, username)
	return nil
}

func (f *fakeStore) ListExercises(context.Context) ([]model.Exercise, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.Exercise{}
	for _, e := range f.exercises {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetExercise(_ context.Context, id int64) (*model.Exercise, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	e, ok := f.exercises[id]
	if !ok {
		return nil, apperror.NotFound("exercise", fmt.Sprint(id))
	}
	return &e, nil
}

func (f *fakeStore) ListTargets(ctx context.Context) ([]string, error) {
	all, err := f.ListExercises(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	out := []string{}
	for _, e := range all {
		if !seen[e.Target] {
			seen[e.Target] = true
			out = append(out, e.Target)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeStore) ListByTarget(ctx context.Context, target string) ([]model.Exercise, error) {
	all, err := f.ListExercises(ctx)
	if err != nil {
		return nil, err
	}
	out := []model.Exercise{}
	for _, e := range all {
		if e.Target == target {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) ReplaceExercises(_ context.Context, exercises []model.Exercise) ([]model.Exercise, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.exercises = map[int64]model.Exercise{}
	f.favorites = map[favKey]bool{}
	out := make([]model.Exercise, 0, len(exercises))
	for i, e := range exercises {
		e.ID = int64(i + 1)
		f.exercises[e.ID] = e
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeStore) ToggleFavorite(_ context.Context, userID, exerciseID int64) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	f.toggles++
	k := favKey{userID, exerciseID}
	if f.favorites[k] {
		delete(f.favorites, k)
		return false, nil
	}
	f.favorites[k] = true
	return true, nil
}

func (f *fakeStore) ListFavorites(_ context.Context, userID int64) ([]model.Exercise, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.Exercise{}
	for k := range f.favorites {
		if k.user == userID {
			out = append(out, f.exercises[k.exercise])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// discardLogger keeps test output quiet.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

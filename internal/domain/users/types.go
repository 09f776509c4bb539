package users

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("a user with that email already exists")
)

type Rank string

const (
	RankNewbie       Rank = "Newbie"
	RankIntermediate Rank = "Intermediate"
	RankExpert       Rank = "Expert"
	RankMaster       Rank = "Master"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Password     password  `json:"-"`
	ReviewsCount int       `json:"reviews_count"`
	XP           int       `json:"xp"`
	Rank         Rank      `json:"rank"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Progress is the derived part of a user owned by the progression updater.
type Progress struct {
	XP           int  `json:"xp"`
	Rank         Rank `json:"rank"`
	ReviewsCount int  `json:"reviews_count"`
}

func (u *User) Progress() Progress {
	return Progress{XP: u.XP, Rank: u.Rank, ReviewsCount: u.ReviewsCount}
}

// Password struct to store plain text and hash
type password struct {
	text *string
	hash []byte
}

func (p *password) Set(text string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.text = &text
	p.hash = hash

	return nil
}

func (p *password) Compare(text string) error {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text))
}

// Hash exposes the stored hash for persistence layers outside this package.
func (p *password) Hash() []byte {
	return p.hash
}

// SetHash loads an already hashed password.
func (p *password) SetHash(hash []byte) {
	p.hash = hash
	p.text = nil
}

type Store interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetForUpdate reads the user and holds a row lock until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, user *User) error
	SetProgress(ctx context.Context, id int64, progress Progress) error
}

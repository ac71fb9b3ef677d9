package repository

import (
	"context"
	"errors"

	"portfolio_economy/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidCurrency   = errors.New("invalid currency")
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// balanceColumn maps a currency to its users column. Only the two known
// currencies ever reach SQL text.
func balanceColumn(c domain.Currency) (string, error) {
	switch c {
	case domain.CurrencyPoints:
		return "points", nil
	case domain.CurrencyPearls:
		return "pearls", nil
	default:
		return "", ErrInvalidCurrency
	}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User, initialPoints, initialPearls int64) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO users (username, points, pearls)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		u.Username, initialPoints, initialPearls,
	).Scan(&u.ID, &u.CreatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, username, points, pearls, xp, created_at
		 FROM users
		 WHERE id = $1`,
		id,
	)

	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Points, &u.Pearls, &u.XP, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, username, points, pearls, xp, created_at
		 FROM users
		 WHERE username = $1`,
		username,
	)

	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Points, &u.Pearls, &u.XP, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetBalance returns the current balance for one currency.
func (r *UserRepository) GetBalance(ctx context.Context, userID int64, currency domain.Currency) (int64, error) {
	col, err := balanceColumn(currency)
	if err != nil {
		return 0, err
	}
	var balance int64
	err = r.db.QueryRow(ctx, `SELECT `+col+` FROM users WHERE id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return balance, nil
}

// DebitWithTx conditionally deducts amount inside an existing database
// transaction. The check and the write are one statement, so two racing
// debits can never both observe the same balance and overdraw.
func (r *UserRepository) DebitWithTx(ctx context.Context, tx pgx.Tx, userID int64, currency domain.Currency, amount int64) (int64, error) {
	col, err := balanceColumn(currency)
	if err != nil {
		return 0, err
	}

	var newBalance int64
	err = tx.QueryRow(ctx,
		`UPDATE users SET `+col+` = `+col+` - $1 WHERE id = $2 AND `+col+` >= $1 RETURNING `+col,
		amount, userID,
	).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Could be not found or insufficient funds, check which
			var exists bool
			_ = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
			if !exists {
				return 0, ErrUserNotFound
			}
			return 0, ErrInsufficientFunds
		}
		return 0, err
	}
	return newBalance, nil
}

// CreditWithTx adds amount inside an existing database transaction.
func (r *UserRepository) CreditWithTx(ctx context.Context, tx pgx.Tx, userID int64, currency domain.Currency, amount int64) (int64, error) {
	col, err := balanceColumn(currency)
	if err != nil {
		return 0, err
	}

	var newBalance int64
	err = tx.QueryRow(ctx,
		`UPDATE users SET `+col+` = `+col+` + $1 WHERE id = $2 RETURNING `+col,
		amount, userID,
	).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return newBalance, nil
}

// AddXPWithTx adds a non-negative amount to the stored XP and returns
// the new total. XP is monotonic; there is no corresponding subtraction.
func (r *UserRepository) AddXPWithTx(ctx context.Context, tx pgx.Tx, userID int64, amount int64) (int64, error) {
	var newXP int64
	err := tx.QueryRow(ctx,
		`UPDATE users SET xp = xp + $1 WHERE id = $2 RETURNING xp`,
		amount, userID,
	).Scan(&newXP)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return newXP, nil
}

// GetXP returns the user's engagement score.
func (r *UserRepository) GetXP(ctx context.Context, userID int64) (int64, error) {
	var xp int64
	err := r.db.QueryRow(ctx, `SELECT xp FROM users WHERE id = $1`, userID).Scan(&xp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return xp, nil
}

// TopUserEntry represents a user in the XP leaderboard.
type TopUserEntry struct {
	Position int         `json:"position"`
	User     domain.User `json:"user"`
}

// GetTopByXP returns the leaderboard, highest XP first.
func (r *UserRepository) GetTopByXP(ctx context.Context, limit int) ([]TopUserEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, username, points, pearls, xp, created_at
		FROM users
		ORDER BY xp DESC, id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []TopUserEntry
	position := 1
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Points, &u.Pearls, &u.XP, &u.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, TopUserEntry{Position: position, User: u})
		position++
	}
	return res, rows.Err()
}

// GetLeaderboardPosition returns the user's position in the XP leaderboard.
func (r *UserRepository) GetLeaderboardPosition(ctx context.Context, userID int64) (int, int64, error) {
	var position int
	var xp int64
	err := r.db.QueryRow(ctx, `
		WITH ranked AS (
			SELECT id, xp, RANK() OVER (ORDER BY xp DESC) AS position
			FROM users
		)
		SELECT position, xp FROM ranked WHERE id = $1
	`, userID).Scan(&position, &xp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrUserNotFound
		}
		return 0, 0, err
	}
	return position, xp, nil
}

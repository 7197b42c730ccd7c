package gateway

import (
	"context"
	"errors"
	"time"

	"voucherpos/internal/domain/history"
	"voucherpos/internal/domain/notification"
	"voucherpos/internal/domain/sale"
	"voucherpos/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const opTimeout = 10 * time.Second

// Postgres is the Remote Data Gateway: per-kind create/update/delete/list
// against the remote relational backend. Transport failures come back as
// kind UNAVAILABLE so the record stores can take the offline fallback.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Ping doubles as the connectivity probe when the remote backend is
// configured.
func (g *Postgres) Ping(ctx context.Context) error {
	return g.pool.Ping(ctx)
}

// classify maps a pgx-level error onto a repository error kind. Anything
// that looks like the backend being unreachable is UNAVAILABLE; integrity
// violations (class 23) are VALIDATION.
func classify(err error, msg string) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return infra.WrapRepoErr(infra.KindNotFound, msg, err)
	case errors.As(err, &pgErr):
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "23" {
			return infra.WrapRepoErr(infra.KindValidation, msg, err)
		}
		return infra.WrapRepoErr(infra.KindDBFailure, msg, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return infra.WrapRepoErr(infra.KindUnavailable, msg, err)
	default:
		// dial errors, broken connections, pool closed
		return infra.WrapRepoErr(infra.KindUnavailable, msg, err)
	}
}

// ---- sales ----

func (g *Postgres) CreateSale(ctx context.Context, s sale.Sale) (sale.Sale, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	id := uuid.NewString()
	row := g.pool.QueryRow(ctx, `
		INSERT INTO sales (id, sale_date, customer_name, package_tier, price, voucher_code, seller_fee, net_deposit, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, sale_date, customer_name, package_tier, price, voucher_code, seller_fee, net_deposit, updated_at`,
		id, s.Date, s.CustomerName, s.PackageTier.String(), s.Price, s.VoucherCode, s.SellerFee, s.NetDeposit, s.UpdatedAt,
	)

	created, err := scanSale(row)
	if err != nil {
		return sale.Sale{}, classify(err, "failed to create sale")
	}
	return created, nil
}

func (g *Postgres) UpdateSale(ctx context.Context, id string, s sale.Sale) (sale.Sale, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	row := g.pool.QueryRow(ctx, `
		UPDATE sales
		SET sale_date = $2, customer_name = $3, package_tier = $4, price = $5,
		    voucher_code = $6, seller_fee = $7, net_deposit = $8, updated_at = $9
		WHERE id = $1
		RETURNING id, sale_date, customer_name, package_tier, price, voucher_code, seller_fee, net_deposit, updated_at`,
		id, s.Date, s.CustomerName, s.PackageTier.String(), s.Price, s.VoucherCode, s.SellerFee, s.NetDeposit, s.UpdatedAt,
	)

	updated, err := scanSale(row)
	if err != nil {
		return sale.Sale{}, classify(err, "failed to update sale "+id)
	}
	return updated, nil
}

func (g *Postgres) DeleteSale(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tag, err := g.pool.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return classify(err, "failed to delete sale "+id)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(infra.KindNotFound, "sale "+id+" not found", nil)
	}
	return nil
}

func (g *Postgres) ListSales(ctx context.Context) ([]sale.Sale, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := g.pool.Query(ctx, `
		SELECT id, sale_date, customer_name, package_tier, price, voucher_code, seller_fee, net_deposit, updated_at
		FROM sales ORDER BY sale_date DESC, updated_at DESC`)
	if err != nil {
		return nil, classify(err, "failed to list sales")
	}
	defer rows.Close()

	var out []sale.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, classify(err, "failed to scan sale")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "failed to list sales")
	}
	return out, nil
}

func scanSale(row pgx.Row) (sale.Sale, error) {
	var s sale.Sale
	var tier string
	err := row.Scan(&s.ID, &s.Date, &s.CustomerName, &tier, &s.Price, &s.VoucherCode, &s.SellerFee, &s.NetDeposit, &s.UpdatedAt)
	if err != nil {
		return sale.Sale{}, err
	}
	s.PackageTier = sale.PackageTier(tier)
	return s, nil
}

// ---- history ----

func (g *Postgres) CreateHistory(ctx context.Context, e history.Entry) (history.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	id := uuid.NewString()
	row := g.pool.QueryRow(ctx, `
		INSERT INTO history (id, sale_date, customer_name, package_tier, price, voucher_code, seller_fee, net_deposit, deposit_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, sale_date, customer_name, package_tier, price, voucher_code, seller_fee, net_deposit, deposit_date, updated_at`,
		id, e.Date, e.CustomerName, e.PackageTier.String(), e.Price, e.VoucherCode, e.SellerFee, e.NetDeposit, e.DepositDate, e.UpdatedAt,
	)

	created, err := scanHistory(row)
	if err != nil {
		return history.Entry{}, classify(err, "failed to create history entry")
	}
	return created, nil
}

func (g *Postgres) DeleteHistory(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tag, err := g.pool.Exec(ctx, `DELETE FROM history WHERE id = $1`, id)
	if err != nil {
		return classify(err, "failed to delete history entry "+id)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(infra.KindNotFound, "history entry "+id+" not found", nil)
	}
	return nil
}

func (g *Postgres) ListHistory(ctx context.Context) ([]history.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := g.pool.Query(ctx, `
		SELECT id, sale_date, customer_name, package_tier, price, voucher_code, seller_fee, net_deposit, deposit_date, updated_at
		FROM history ORDER BY deposit_date DESC, updated_at DESC`)
	if err != nil {
		return nil, classify(err, "failed to list history")
	}
	defer rows.Close()

	var out []history.Entry
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, classify(err, "failed to scan history entry")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "failed to list history")
	}
	return out, nil
}

func scanHistory(row pgx.Row) (history.Entry, error) {
	var e history.Entry
	var tier string
	err := row.Scan(&e.ID, &e.Date, &e.CustomerName, &tier, &e.Price, &e.VoucherCode, &e.SellerFee, &e.NetDeposit, &e.DepositDate, &e.UpdatedAt)
	if err != nil {
		return history.Entry{}, err
	}
	e.PackageTier = sale.PackageTier(tier)
	return e, nil
}

// ---- notifications ----

func (g *Postgres) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	id := uuid.NewString()
	_, err := g.pool.Exec(ctx, `
		INSERT INTO notifications (id, message, type, created_at)
		VALUES ($1, $2, $3, $4)`,
		id, n.Message, string(n.Type), n.Timestamp,
	)
	if err != nil {
		return notification.Notification{}, classify(err, "failed to create notification")
	}

	n.ID = id
	return n, nil
}

func (g *Postgres) ListNotifications(ctx context.Context, limit int) ([]notification.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := g.pool.Query(ctx, `
		SELECT id, message, type, created_at
		FROM notifications ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, classify(err, "failed to list notifications")
	}
	defer rows.Close()

	var out []notification.Notification
	for rows.Next() {
		var n notification.Notification
		var typ string
		if err := rows.Scan(&n.ID, &n.Message, &typ, &n.Timestamp); err != nil {
			return nil, classify(err, "failed to scan notification")
		}
		n.Type = notification.Type(typ)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "failed to list notifications")
	}
	return out, nil
}

package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"camwatch/internal/domain"
	"camwatch/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.CatalogRepo      = (*Postgres)(nil)
	_ domain.SubscriptionRepo = (*Postgres)(nil)
	_ domain.NotificationRepo = (*Postgres)(nil)
	_ domain.CheckTaskRepo    = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return p.connCtx()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

const performerColumns = `id, platform, native_id, handle, unique_handle, display_name, online, age, gender,
description, image_url, iframe_url, embed_url, snapshot_url, chat_url, raw_json,
explicit, confidence, checked_at, image_hash, popular, created_at, updated_at`

func scanPerformer(row pgx.Row) (domain.Performer, error) {
	var perf domain.Performer
	err := row.Scan(
		&perf.ID, &perf.Platform, &perf.NativeID, &perf.Handle, &perf.UniqueHandle, &perf.DisplayName,
		&perf.Online, &perf.Age, &perf.Gender, &perf.Description, &perf.ImageURL, &perf.IframeURL,
		&perf.EmbedURL, &perf.SnapshotURL, &perf.ChatURL, &perf.RawJSON, &perf.Explicit,
		&perf.Confidence, &perf.CheckedAt, &perf.ImageHash, &perf.Popular, &perf.CreatedAt, &perf.UpdatedAt,
	)
	return perf, err
}

// ApplySweep реализует domain.CatalogRepo.
func (p *Postgres) ApplySweep(ctx context.Context, platform string, records []domain.SourceRecord) (domain.SweepStats, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var stats domain.SweepStats

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "performers", start, err)
	if err != nil {
		return stats, err
	}
	defer tx.Rollback(ctx)

	existing, err := p.loadPlatformIndex(ctx, tx, platform)
	if err != nil {
		return stats, err
	}

	var toUpdate, toInsert []domain.SourceRecord
	presentIDs := make([]string, 0, len(records))
	for _, rec := range records {
		presentIDs = append(presentIDs, rec.NativeID)
		if _, ok := existing[rec.NativeID]; ok {
			toUpdate = append(toUpdate, rec)
		} else {
			toInsert = append(toInsert, rec)
		}
	}

	if len(toUpdate) > 0 {
		batch := &pgx.Batch{}
		for _, rec := range toUpdate {
			batch.Queue(`
UPDATE performers SET
    display_name=$3, online=TRUE, age=$4, gender=$5, description=$6, image_url=$7,
    iframe_url=$8, embed_url=$9, snapshot_url=$10, chat_url=$11, raw_json=$12, updated_at=now()
WHERE platform=$1 AND native_id=$2
`, platform, rec.NativeID, rec.DisplayName, rec.Age, rec.Gender, rec.Description, rec.ImageURL,
				rec.IframeURL, rec.EmbedURL, rec.SnapshotURL, rec.ChatURL, rec.RawJSON)
		}
		start = time.Now()
		br := tx.SendBatch(ctx, batch)
		metrics.ObserveNetworkRequest("postgres", "performers_update_batch", "performers", start, nil)
		for range toUpdate {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return stats, err
			}
			stats.Updated += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return stats, err
		}
	}

	if len(toInsert) > 0 {
		handles, err := p.reserveHandles(ctx, tx, toInsert)
		if err != nil {
			return stats, err
		}
		batch := &pgx.Batch{}
		for i, rec := range toInsert {
			batch.Queue(`
INSERT INTO performers (platform, native_id, handle, unique_handle, display_name, online, age, gender,
    description, image_url, iframe_url, embed_url, snapshot_url, chat_url, raw_json)
VALUES ($1,$2,$3,$4,$5,TRUE,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT DO NOTHING
`, platform, rec.NativeID, rec.Handle, handles[i], rec.DisplayName, rec.Age, rec.Gender,
				rec.Description, rec.ImageURL, rec.IframeURL, rec.EmbedURL, rec.SnapshotURL, rec.ChatURL, rec.RawJSON)
		}
		start = time.Now()
		br := tx.SendBatch(ctx, batch)
		metrics.ObserveNetworkRequest("postgres", "performers_insert_batch", "performers", start, nil)
		for range toInsert {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return stats, err
			}
			stats.Inserted += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return stats, err
		}
	}

	resuffixed, err := p.resolveDuplicateHandles(ctx, tx)
	if err != nil {
		return stats, err
	}
	stats.Resuffixed = resuffixed

	start = time.Now()
	tag, err := tx.Exec(ctx, `
UPDATE performers SET online=FALSE, updated_at=now()
WHERE platform=$1 AND online AND NOT (native_id = ANY($2))
`, platform, presentIDs)
	metrics.ObserveNetworkRequest("postgres", "performers_mark_offline", "performers", start, err)
	if err != nil {
		return stats, err
	}
	stats.MarkedOffline = int(tag.RowsAffected())

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "performers", start, err)
	if err != nil {
		return stats, err
	}
	return stats, nil
}

func (p *Postgres) loadPlatformIndex(ctx context.Context, tx pgx.Tx, platform string) (map[string]int64, error) {
	start := time.Now()
	rows, err := tx.Query(ctx, `SELECT id, native_id FROM performers WHERE platform=$1`, platform)
	metrics.ObserveNetworkRequest("postgres", "performers_index", "performers", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	index := make(map[string]int64)
	for rows.Next() {
		var (
			id       int64
			nativeID string
		)
		if err := rows.Scan(&id, &nativeID); err != nil {
			return nil, err
		}
		index[nativeID] = id
	}
	return index, rows.Err()
}

// reserveHandles выбирает уникальные хендлы для новых записей: базовый хендл,
// если он свободен, иначе следующий порядковый суффикс группы.
func (p *Postgres) reserveHandles(ctx context.Context, tx pgx.Tx, records []domain.SourceRecord) ([]string, error) {
	bases := make([]string, 0, len(records))
	for _, rec := range records {
		bases = append(bases, rec.Handle)
	}
	start := time.Now()
	rows, err := tx.Query(ctx, `SELECT handle, count(*) FROM performers WHERE handle = ANY($1) GROUP BY handle`, bases)
	metrics.ObserveNetworkRequest("postgres", "performers_handle_counts", "performers", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var (
			handle string
			count  int
		)
		if err := rows.Scan(&handle, &count); err != nil {
			return nil, err
		}
		counts[handle] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	handles := make([]string, len(records))
	for i, rec := range records {
		n := counts[rec.Handle]
		if n == 0 {
			handles[i] = rec.Handle
		} else {
			handles[i] = fmt.Sprintf("%s_%d", rec.Handle, n)
		}
		counts[rec.Handle] = n + 1
	}
	return handles, nil
}

func (p *Postgres) resolveDuplicateHandles(ctx context.Context, tx pgx.Tx) (int, error) {
	start := time.Now()
	rows, err := tx.Query(ctx, `
SELECT id, handle, unique_handle FROM performers
WHERE handle IN (SELECT handle FROM performers GROUP BY handle HAVING count(*) > 1)
ORDER BY id
`)
	metrics.ObserveNetworkRequest("postgres", "performers_duplicate_handles", "performers", start, err)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	groups := make(map[string][]domain.HandleOwner)
	for rows.Next() {
		var (
			id                   int64
			handle, uniqueHandle string
		)
		if err := rows.Scan(&id, &handle, &uniqueHandle); err != nil {
			return 0, err
		}
		groups[handle] = append(groups[handle], domain.HandleOwner{ID: id, UniqueHandle: uniqueHandle})
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	changes := domain.PlanHandleSuffixes(groups)
	if len(changes) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, change := range changes {
		batch.Queue(`UPDATE performers SET unique_handle=$2, updated_at=now() WHERE id=$1`, change.ID, change.NewHandle)
	}
	start = time.Now()
	br := tx.SendBatch(ctx, batch)
	metrics.ObserveNetworkRequest("postgres", "performers_resuffix_batch", "performers", start, nil)
	for range changes {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return 0, err
		}
	}
	if err := br.Close(); err != nil {
		return 0, err
	}
	return len(changes), nil
}

// ReplaceCategories реализует domain.CatalogRepo.
func (p *Postgres) ReplaceCategories(ctx context.Context, platform string, tags map[string][]string) error {
	if len(tags) == 0 {
		return nil
	}
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	dictionary, err := p.categoryIndex(ctx)
	if err != nil {
		return err
	}

	nativeIDs := make([]string, 0, len(tags))
	for nativeID := range tags {
		nativeIDs = append(nativeIDs, nativeID)
	}
	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT id, native_id FROM performers WHERE platform=$1 AND native_id = ANY($2)`, platform, nativeIDs)
	metrics.ObserveNetworkRequest("postgres", "performers_by_native_id", "performers", start, err)
	if err != nil {
		return err
	}
	performerIDs := make(map[string]int64)
	allIDs := make([]int64, 0, len(tags))
	for rows.Next() {
		var (
			id       int64
			nativeID string
		)
		if err := rows.Scan(&id, &nativeID); err != nil {
			rows.Close()
			return err
		}
		performerIDs[nativeID] = id
		allIDs = append(allIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(allIDs) == 0 {
		return nil
	}

	start = time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "performer_categories", start, err)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	start = time.Now()
	_, err = tx.Exec(ctx, `DELETE FROM performer_categories WHERE performer_id = ANY($1)`, allIDs)
	metrics.ObserveNetworkRequest("postgres", "performer_categories_delete", "performer_categories", start, err)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	queued := 0
	for nativeID, names := range tags {
		performerID, ok := performerIDs[nativeID]
		if !ok {
			continue
		}
		for _, name := range names {
			categoryID, ok := dictionary[strings.ToLower(strings.TrimSpace(name))]
			if !ok {
				continue
			}
			batch.Queue(`
INSERT INTO performer_categories (performer_id, category_id) VALUES ($1,$2)
ON CONFLICT DO NOTHING
`, performerID, categoryID)
			queued++
		}
	}
	if queued > 0 {
		start = time.Now()
		br := tx.SendBatch(ctx, batch)
		metrics.ObserveNetworkRequest("postgres", "performer_categories_insert_batch", "performer_categories", start, nil)
		for i := 0; i < queued; i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return err
			}
		}
		if err := br.Close(); err != nil {
			return err
		}
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "performer_categories", start, err)
	return err
}

// categoryIndex строит индекс категорий по name и display_name в нижнем регистре.
func (p *Postgres) categoryIndex(ctx context.Context) (map[string]int64, error) {
	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT id, name, display_name FROM categories WHERE active`)
	metrics.ObserveNetworkRequest("postgres", "categories_list", "categories", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	index := make(map[string]int64)
	for rows.Next() {
		var (
			id                int64
			name, displayName string
		)
		if err := rows.Scan(&id, &name, &displayName); err != nil {
			return nil, err
		}
		index[strings.ToLower(name)] = id
		if displayName != "" {
			index[strings.ToLower(displayName)] = id
		}
	}
	return index, rows.Err()
}

// GetPerformer реализует domain.CatalogRepo.
func (p *Postgres) GetPerformer(ctx context.Context, id int64) (domain.Performer, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	perf, err := scanPerformer(p.pool.QueryRow(ctx, `SELECT `+performerColumns+` FROM performers WHERE id=$1`, id))
	metrics.ObserveNetworkRequest("postgres", "performers_get", "performers", start, err)
	return perf, err
}

// ListPerformers реализует domain.CatalogRepo.
func (p *Postgres) ListPerformers(ctx context.Context, filter domain.PerformerFilter) ([]domain.Performer, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var (
		where []string
		args  []any
	)
	if filter.Platform != "" {
		args = append(args, filter.Platform)
		where = append(where, fmt.Sprintf("platform=$%d", len(args)))
	}
	if filter.Gender != "" {
		args = append(args, filter.Gender)
		where = append(where, fmt.Sprintf("gender=$%d", len(args)))
	}
	if filter.Online != nil {
		args = append(args, *filter.Online)
		where = append(where, fmt.Sprintf("online=$%d", len(args)))
	}
	query := `SELECT ` + performerColumns + ` FROM performers`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", "performers_list", "performers", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var performers []domain.Performer
	for rows.Next() {
		perf, err := scanPerformer(rows)
		if err != nil {
			return nil, err
		}
		performers = append(performers, perf)
	}
	return performers, rows.Err()
}

// ListCheckCandidates реализует domain.CatalogRepo.
func (p *Postgres) ListCheckCandidates(ctx context.Context) ([]domain.Performer, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+performerColumns+` FROM performers p
WHERE p.online AND p.image_url <> ''
  AND EXISTS (SELECT 1 FROM subscriptions s WHERE s.performer_id = p.id AND s.active)
`)
	metrics.ObserveNetworkRequest("postgres", "performers_check_candidates", "performers", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var performers []domain.Performer
	for rows.Next() {
		perf, err := scanPerformer(rows)
		if err != nil {
			return nil, err
		}
		performers = append(performers, perf)
	}
	return performers, rows.Err()
}

// UpdateCheckResult реализует domain.CatalogRepo.
func (p *Postgres) UpdateCheckResult(ctx context.Context, id int64, explicit bool, confidence float64, checkedAt time.Time, imageHash string) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE performers SET explicit=$2, confidence=$3, checked_at=$4, image_hash=$5, updated_at=now()
WHERE id=$1
`, id, explicit, confidence, checkedAt, imageHash)
	metrics.ObserveNetworkRequest("postgres", "performers_check_result", "performers", start, err)
	return err
}

// RecomputePopularity реализует domain.CatalogRepo.
func (p *Postgres) RecomputePopularity(ctx context.Context, minViewers int) (int, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
UPDATE performers SET
    popular = COALESCE(NULLIF(raw_json->>'num_users','')::int, NULLIF(raw_json->>'viewers','')::int, 0) >= $1,
    updated_at = now()
WHERE popular IS DISTINCT FROM
    (COALESCE(NULLIF(raw_json->>'num_users','')::int, NULLIF(raw_json->>'viewers','')::int, 0) >= $1)
`, minViewers)
	metrics.ObserveNetworkRequest("postgres", "performers_recompute_popularity", "performers", start, err)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// UpsertCategory реализует domain.CategoryRepo.
func (p *Postgres) UpsertCategory(ctx context.Context, name, displayName string) (domain.Category, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var cat domain.Category
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO categories (name, display_name) VALUES ($1,$2)
ON CONFLICT (name) DO UPDATE SET display_name = EXCLUDED.display_name
RETURNING id, name, display_name, active, created_at
`, name, displayName).Scan(&cat.ID, &cat.Name, &cat.DisplayName, &cat.Active, &cat.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "categories_upsert", "categories", start, err)
	return cat, err
}

// ListCategories реализует domain.CategoryRepo.
func (p *Postgres) ListCategories(ctx context.Context) ([]domain.Category, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT id, name, display_name, active, created_at FROM categories ORDER BY name`)
	metrics.ObserveNetworkRequest("postgres", "categories_list", "categories", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var categories []domain.Category
	for rows.Next() {
		var cat domain.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.DisplayName, &cat.Active, &cat.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

// UpsertByEmail реализует domain.UserRepo.
func (p *Postgres) UpsertByEmail(ctx context.Context, email string, tgChatID *int64) (domain.User, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var user domain.User
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO users (email, tg_chat_id) VALUES ($1,$2)
ON CONFLICT (email) DO UPDATE SET tg_chat_id = COALESCE(EXCLUDED.tg_chat_id, users.tg_chat_id)
RETURNING id, email, tg_chat_id, created_at
`, strings.ToLower(strings.TrimSpace(email)), tgChatID).Scan(&user.ID, &user.Email, &user.TGChatID, &user.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "users_upsert", "users", start, err)
	return user, err
}

// GetUser реализует domain.UserRepo.
func (p *Postgres) GetUser(ctx context.Context, id int64) (domain.User, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var user domain.User
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT id, email, tg_chat_id, created_at FROM users WHERE id=$1`, id).
		Scan(&user.ID, &user.Email, &user.TGChatID, &user.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "users_get", "users", start, err)
	return user, err
}

// Subscribe реализует domain.SubscriptionRepo.
func (p *Postgres) Subscribe(ctx context.Context, userID, performerID int64, channel string) (domain.Subscription, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var sub domain.Subscription
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO subscriptions (user_id, performer_id, channel, active) VALUES ($1,$2,$3,TRUE)
ON CONFLICT (user_id, performer_id) DO UPDATE SET active=TRUE, channel=EXCLUDED.channel, updated_at=now()
RETURNING id, user_id, performer_id, active, channel, last_notified_at, created_at, updated_at
`, userID, performerID, channel).Scan(
		&sub.ID, &sub.UserID, &sub.PerformerID, &sub.Active, &sub.Channel,
		&sub.LastNotifiedAt, &sub.CreatedAt, &sub.UpdatedAt,
	)
	metrics.ObserveNetworkRequest("postgres", "subscriptions_upsert", "subscriptions", start, err)
	return sub, err
}

// Unsubscribe реализует domain.SubscriptionRepo.
func (p *Postgres) Unsubscribe(ctx context.Context, userID, performerID int64) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE subscriptions SET active=FALSE, updated_at=now() WHERE user_id=$1 AND performer_id=$2
`, userID, performerID)
	metrics.ObserveNetworkRequest("postgres", "subscriptions_deactivate", "subscriptions", start, err)
	return err
}

const subscriptionColumns = `s.id, s.user_id, s.performer_id, s.active, s.channel, s.last_notified_at,
s.created_at, s.updated_at, u.id, u.email, u.tg_chat_id, u.created_at`

func scanSubscription(rows pgx.Rows) (domain.Subscription, error) {
	var sub domain.Subscription
	err := rows.Scan(
		&sub.ID, &sub.UserID, &sub.PerformerID, &sub.Active, &sub.Channel, &sub.LastNotifiedAt,
		&sub.CreatedAt, &sub.UpdatedAt, &sub.User.ID, &sub.User.Email, &sub.User.TGChatID, &sub.User.CreatedAt,
	)
	return sub, err
}

// ListUserSubscriptions реализует domain.SubscriptionRepo.
func (p *Postgres) ListUserSubscriptions(ctx context.Context, userID int64) ([]domain.Subscription, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+subscriptionColumns+` FROM subscriptions s
JOIN users u ON u.id = s.user_id
WHERE s.user_id=$1 AND s.active
ORDER BY s.id
`, userID)
	metrics.ObserveNetworkRequest("postgres", "subscriptions_by_user", "subscriptions", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// ListActiveForPerformer реализует domain.SubscriptionRepo.
func (p *Postgres) ListActiveForPerformer(ctx context.Context, performerID int64) ([]domain.Subscription, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+subscriptionColumns+` FROM subscriptions s
JOIN users u ON u.id = s.user_id
WHERE s.performer_id=$1 AND s.active
ORDER BY s.id
`, performerID)
	metrics.ObserveNetworkRequest("postgres", "subscriptions_by_performer", "subscriptions", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// StampNotified реализует domain.SubscriptionRepo.
func (p *Postgres) StampNotified(ctx context.Context, subscriptionID int64, at time.Time) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE subscriptions SET last_notified_at=$2, updated_at=now() WHERE id=$1
`, subscriptionID, at)
	metrics.ObserveNetworkRequest("postgres", "subscriptions_stamp_notified", "subscriptions", start, err)
	return err
}

// CreateNotification реализует domain.NotificationRepo.
func (p *Postgres) CreateNotification(ctx context.Context, subscriptionID, performerID int64, channel string) (domain.Notification, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var n domain.Notification
	var errText *string
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO notifications (subscription_id, performer_id, channel) VALUES ($1,$2,$3)
RETURNING id, subscription_id, performer_id, channel, status, sent_at, error, created_at
`, subscriptionID, performerID, channel).Scan(
		&n.ID, &n.SubscriptionID, &n.PerformerID, &n.Channel, &n.Status, &n.SentAt, &errText, &n.CreatedAt,
	)
	metrics.ObserveNetworkRequest("postgres", "notifications_insert", "notifications", start, err)
	if errText != nil {
		n.Error = *errText
	}
	return n, err
}

// MarkNotificationSent реализует domain.NotificationRepo.
func (p *Postgres) MarkNotificationSent(ctx context.Context, id int64, at time.Time) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE notifications SET status=$2, sent_at=$3 WHERE id=$1 AND status=$4
`, id, domain.NotificationSent, at, domain.NotificationPending)
	metrics.ObserveNetworkRequest("postgres", "notifications_mark_sent", "notifications", start, err)
	return err
}

// MarkNotificationFailed реализует domain.NotificationRepo.
func (p *Postgres) MarkNotificationFailed(ctx context.Context, id int64, detail string) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE notifications SET status=$2, error=$3 WHERE id=$1 AND status=$4
`, id, domain.NotificationFailed, detail, domain.NotificationPending)
	metrics.ObserveNetworkRequest("postgres", "notifications_mark_failed", "notifications", start, err)
	return err
}

// AcquireCheckTask реализует domain.CheckTaskRepo.
func (p *Postgres) AcquireCheckTask(ctx context.Context, performerID int64, scheduledFor time.Time) (bool, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
INSERT INTO check_tasks (performer_id, scheduled_for) VALUES ($1,$2)
ON CONFLICT DO NOTHING
`, performerID, scheduledFor)
	metrics.ObserveNetworkRequest("postgres", "check_tasks_acquire", "check_tasks", start, err)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GetPlatformConfig реализует domain.PlatformConfigRepo.
func (p *Postgres) GetPlatformConfig(ctx context.Context, platform string) (domain.PlatformConfig, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var (
		cfg    domain.PlatformConfig
		params []byte
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, platform, method, api_url, params, active FROM platform_configs WHERE platform=$1
`, platform).Scan(&cfg.ID, &cfg.Platform, &cfg.Method, &cfg.APIURL, &params, &cfg.Active)
	metrics.ObserveNetworkRequest("postgres", "platform_configs_get", "platform_configs", start, err)
	if err != nil {
		return domain.PlatformConfig{}, err
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &cfg.Params); err != nil {
			return domain.PlatformConfig{}, fmt.Errorf("decode platform params: %w", err)
		}
	}
	return cfg, nil
}

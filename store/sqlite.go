// Package store は、データの永続化機能を提供します。
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stsysd/shuukan/db"
	"github.com/stsysd/shuukan/model"
)

// WeeklyPlanStore は週次プランの保存と取得を行うインターフェースです。
type WeeklyPlanStore interface {
	// GetOrCreateWeeklyPlan は指定された週のプランを取得し、なければ作成します。
	GetOrCreateWeeklyPlan(ctx context.Context, week model.ISOWeek) (*model.WeeklyPlan, error)
	// GetWeeklyPlan は指定された週のプランを取得します。
	GetWeeklyPlan(ctx context.Context, week model.ISOWeek) (*model.WeeklyPlan, error)
	// ListWeeklyPlans は指定された年に作成済みのプランを週の昇順で取得します。
	ListWeeklyPlans(ctx context.Context, year int) ([]*model.WeeklyPlan, error)
	// SaveObjective は指定されたスロットの目標を保存します。
	SaveObjective(ctx context.Context, planID uuid.UUID, slot int, objective model.WeeklyObjective) error
	// SaveRetrospective は振り返りを保存します。
	SaveRetrospective(ctx context.Context, planID uuid.UUID, retro model.Retrospective) error
}

// GoalStore は確定済みプランの保存と取得を行うインターフェースです。
type GoalStore interface {
	// CreateGoal は新しいGoalを保存します。
	CreateGoal(ctx context.Context, goal *model.Goal) error
	// GetGoal は指定されたIDのGoalを取得します。
	GetGoal(ctx context.Context, id uuid.UUID) (*model.Goal, error)
	// ListGoals は作成日時の降順でGoalを取得します。
	ListGoals(ctx context.Context, pagination *model.Pagination) ([]*model.Goal, error)
}

// Store はアプリケーションが使うすべてのストア操作をまとめたインターフェースです。
type Store interface {
	WeeklyPlanStore
	GoalStore
	// Close はストアの接続を閉じます。
	Close() error
}

// MigrateFunc はスキーマのマイグレーション関数です。
type MigrateFunc func(conn *sql.DB) error

// SQLiteStore はSQLiteを使用したStoreの実装です。
type SQLiteStore struct {
	conn    *sql.DB
	queries *db.Queries
}

// NewSQLiteStore は新しいSQLiteStoreを作成します。
func NewSQLiteStore(dataDir string, migrate MigrateFunc) (*SQLiteStore, error) {
	conn, err := Open(dataDir)
	if err != nil {
		return nil, err
	}

	// テーブルの初期化
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize database tables: %w", err)
	}

	return &SQLiteStore{
		conn:    conn,
		queries: db.New(conn),
	}, nil
}

// Open はデータディレクトリ内のSQLiteデータベースに接続します。
func Open(dataDir string) (*sql.DB, error) {
	// データディレクトリの作成（存在しない場合）
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// SQLiteデータベースファイルのパス
	dbPath := filepath.Join(dataDir, "shuukan.db")

	// 外部キーは接続ごとの設定なのでDSNで指定する
	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}
	// 書き込みを直列化する
	conn.SetMaxOpenConns(1)
	return conn, nil
}

// Close はストアの接続を閉じます。
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// GetOrCreateWeeklyPlan は指定された週のプランを取得し、なければ作成します。
// 同時に初回アクセスがあっても同じプランに収束します。
func (s *SQLiteStore) GetOrCreateWeeklyPlan(ctx context.Context, week model.ISOWeek) (*model.WeeklyPlan, error) {
	// 作成する場合の候補（IDなど）を用意
	candidate, err := model.NewWeeklyPlan(week)
	if err != nil {
		return nil, err
	}
	now := candidate.CreatedAt.UTC().Format(time.RFC3339)

	// トランザクションの開始
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			tx.Rollback() // 成功した場合は既にnilになっているためエラーは無視
		}
	}()
	queriesWithTx := s.queries.WithTx(tx)

	err = queriesWithTx.InsertWeeklyPlanIfAbsent(ctx, db.InsertWeeklyPlanIfAbsentParams{
		ID:        candidate.ID.String(),
		Year:      int64(week.Year),
		Week:      int64(week.Week),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert weekly plan: %w", err)
	}

	dbPlan, err := queriesWithTx.GetWeeklyPlan(ctx, db.GetWeeklyPlanParams{
		Year: int64(week.Year),
		Week: int64(week.Week),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly plan: %w", err)
	}

	// 欠けているスロットを補う
	for slot, o := range candidate.Objectives {
		err = queriesWithTx.InsertObjectiveIfAbsent(ctx, db.InsertObjectiveIfAbsentParams{
			PlanID: dbPlan.ID,
			Slot:   int64(slot),
			ID:     o.ID.String(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to insert objective %d: %w", slot, err)
		}
	}

	plan, err := loadWeeklyPlan(ctx, queriesWithTx, dbPlan)
	if err != nil {
		return nil, err
	}

	// トランザクションのコミット
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil // コミットが成功したのでnilにして遅延関数でのロールバックを防ぐ

	return plan, nil
}

// GetWeeklyPlan は指定された週のプランを取得します。
func (s *SQLiteStore) GetWeeklyPlan(ctx context.Context, week model.ISOWeek) (*model.WeeklyPlan, error) {
	dbPlan, err := s.queries.GetWeeklyPlan(ctx, db.GetWeeklyPlanParams{
		Year: int64(week.Year),
		Week: int64(week.Week),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrWeeklyPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return loadWeeklyPlan(ctx, s.queries, dbPlan)
}

// ListWeeklyPlans は指定された年に作成済みのプランを週の昇順で取得します。
func (s *SQLiteStore) ListWeeklyPlans(ctx context.Context, year int) ([]*model.WeeklyPlan, error) {
	dbPlans, err := s.queries.ListWeeklyPlansByYear(ctx, int64(year))
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly plans: %w", err)
	}

	plans := make([]*model.WeeklyPlan, 0, len(dbPlans))
	for _, dbPlan := range dbPlans {
		plan, err := loadWeeklyPlan(ctx, s.queries, dbPlan)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// SaveObjective は指定されたスロットの目標を保存します。
// 状態の整合性はここでは検証しません（UpdateMetricを通した値をそのまま保存します）。
func (s *SQLiteStore) SaveObjective(ctx context.Context, planID uuid.UUID, slot int, objective model.WeeklyObjective) error {
	if err := model.ValidateSlot(slot); err != nil {
		return err
	}
	if err := objective.Validate(); err != nil {
		return err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()
	queriesWithTx := s.queries.WithTx(tx)

	result, err := queriesWithTx.UpdateObjective(ctx, db.UpdateObjectiveParams{
		Content: objective.Content,
		Status:  string(objective.Status),
		Target:  nullFloat(objective.Target),
		Current: nullFloat(objective.Current),
		Unit:    nullString(objective.Unit),
		PlanID:  planID.String(),
		Slot:    int64(slot),
	})
	if err != nil {
		return fmt.Errorf("failed to update objective: %w", err)
	}

	// 更新された行数を確認
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrWeeklyPlanNotFound
	}

	err = queriesWithTx.TouchWeeklyPlan(ctx, db.TouchWeeklyPlanParams{
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		ID:        planID.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to touch weekly plan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	return nil
}

// SaveRetrospective は振り返りを保存します。
func (s *SQLiteStore) SaveRetrospective(ctx context.Context, planID uuid.UUID, retro model.Retrospective) error {
	result, err := s.queries.UpdateRetrospective(ctx, db.UpdateRetrospectiveParams{
		RetroWins:       retro.Wins,
		RetroChallenges: retro.Challenges,
		RetroLessons:    retro.Lessons,
		UpdatedAt:       time.Now().UTC().Format(time.RFC3339),
		ID:              planID.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to update retrospective: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return model.ErrWeeklyPlanNotFound
	}
	return nil
}

// CreateGoal は新しいGoalを保存します。
func (s *SQLiteStore) CreateGoal(ctx context.Context, goal *model.Goal) error {
	if err := goal.Validate(); err != nil {
		return err
	}

	phases, err := json.Marshal(goal.Phases)
	if err != nil {
		return fmt.Errorf("failed to encode phases: %w", err)
	}

	return s.queries.CreateGoal(ctx, db.CreateGoalParams{
		ID:          goal.ID.String(),
		Title:       goal.Title,
		Deadline:    goal.Deadline,
		HoursPerDay: goal.HoursPerDay,
		Language:    goal.Language,
		Phases:      string(phases),
		CreatedAt:   goal.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// GetGoal は指定されたIDのGoalを取得します。
func (s *SQLiteStore) GetGoal(ctx context.Context, id uuid.UUID) (*model.Goal, error) {
	dbGoal, err := s.queries.GetGoal(ctx, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}
	return loadGoal(dbGoal)
}

// ListGoals は作成日時の降順でGoalを取得します。
func (s *SQLiteStore) ListGoals(ctx context.Context, pagination *model.Pagination) ([]*model.Goal, error) {
	dbGoals, err := s.queries.ListGoals(ctx, db.ListGoalsParams{
		Limit:  int64(pagination.Limit()),
		Offset: int64(pagination.Offset()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}

	goals := make([]*model.Goal, 0, len(dbGoals))
	for _, dbGoal := range dbGoals {
		goal, err := loadGoal(dbGoal)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	return goals, nil
}

// loadWeeklyPlan はDBの行と目標一覧からモデルを組み立てます。
func loadWeeklyPlan(ctx context.Context, q *db.Queries, dbPlan db.WeeklyPlan) (*model.WeeklyPlan, error) {
	planID, err := uuid.Parse(dbPlan.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in database: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339, dbPlan.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339, dbPlan.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	dbObjectives, err := q.ListObjectives(ctx, dbPlan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list objectives: %w", err)
	}
	if len(dbObjectives) != model.ObjectiveSlots {
		return nil, fmt.Errorf("weekly plan %s has %d objectives, want %d", dbPlan.ID, len(dbObjectives), model.ObjectiveSlots)
	}

	var objectives [model.ObjectiveSlots]model.WeeklyObjective
	for _, row := range dbObjectives {
		id, err := uuid.Parse(row.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid UUID in database: %w", err)
		}
		objectives[row.Slot] = model.WeeklyObjective{
			ID:      id,
			Content: row.Content,
			Status:  model.ObjectiveStatus(row.Status),
			Target:  floatPtr(row.Target),
			Current: floatPtr(row.Current),
			Unit:    stringPtr(row.Unit),
		}
	}

	return model.LoadWeeklyPlan(
		planID,
		model.ISOWeek{Year: int(dbPlan.Year), Week: int(dbPlan.Week)},
		objectives,
		model.Retrospective{
			Wins:       dbPlan.RetroWins,
			Challenges: dbPlan.RetroChallenges,
			Lessons:    dbPlan.RetroLessons,
		},
		createdAt,
		updatedAt,
	)
}

func loadGoal(dbGoal db.Goal) (*model.Goal, error) {
	id, err := uuid.Parse(dbGoal.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in database: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339, dbGoal.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	var phases []model.Phase
	if err := json.Unmarshal([]byte(dbGoal.Phases), &phases); err != nil {
		return nil, fmt.Errorf("failed to decode phases: %w", err)
	}
	return model.LoadGoal(id, dbGoal.Title, dbGoal.Deadline, dbGoal.HoursPerDay, dbGoal.Language, phases, createdAt)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

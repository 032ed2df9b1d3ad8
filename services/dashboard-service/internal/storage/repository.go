package storage

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salondesk/salondesk/libs/db"
	"github.com/salondesk/salondesk/services/dashboard-service/internal/dashboard"
	"github.com/salondesk/salondesk/services/dashboard-service/internal/model"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ dashboard.Store = (*Repository)(nil)

// where accumulates AND-ed conditions; "?" in a condition becomes the next
// positional parameter.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		cond = strings.Replace(cond, "?", "$"+strconv.Itoa(len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

// scope restricts to the tenant and, unless the scope is tenant-wide, to one branch.
func (w *where) scope(tenantCol, branchCol string, s dashboard.Scope) {
	w.add(tenantCol+" = ?", s.TenantID)
	w.args = append(w.args, s.BranchID)
	p := "$" + strconv.Itoa(len(w.args))
	w.conds = append(w.conds, "("+p+" = '' OR "+branchCol+" = NULLIF("+p+", '')::uuid)")
}

func (w *where) limit(n int) string {
	if n <= 0 {
		return ""
	}
	w.args = append(w.args, n)
	return " LIMIT $" + strconv.Itoa(len(w.args))
}

func (w *where) String() string {
	return strings.Join(w.conds, " AND ")
}

func day(t time.Time) string {
	return t.Format(time.DateOnly)
}

func appointmentStatuses(in []model.AppointmentStatus) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

func appointmentQuery(q dashboard.AppointmentQuery) (string, []any) {
	var w where
	w.scope("tenant_id", "branch_id", q.Scope)
	w.add("appointment_date = ?::date", day(q.Day))
	if len(q.Statuses) > 0 {
		w.add("status = ANY(?)", appointmentStatuses(q.Statuses))
	}
	if len(q.ExcludeStatuses) > 0 {
		w.add("NOT (status = ANY(?))", appointmentStatuses(q.ExcludeStatuses))
	}
	if q.From != "" {
		w.add("scheduled_time >= ?::time", q.From)
	}
	if q.Until != "" {
		w.add("scheduled_time <= ?::time", q.Until)
	}
	sql := `
		SELECT id::text, tenant_id::text, branch_id::text, customer_name, COALESCE(customer_phone, ''),
			service_name, COALESCE(stylist_id::text, ''), appointment_date,
			to_char(scheduled_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), status
		FROM appointments
		WHERE ` + w.String() + `
		ORDER BY scheduled_time ASC, id ASC`
	sql += w.limit(q.Limit)
	return sql, w.args
}

func (r *Repository) ListAppointments(ctx context.Context, q dashboard.AppointmentQuery) ([]model.Appointment, error) {
	sql, args := appointmentQuery(q)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.TenantID, &a.BranchID, &a.CustomerName, &a.CustomerPhone,
			&a.ServiceName, &a.StylistID, &a.Date, &a.ScheduledTime, &a.EndTime, &a.Status); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) CountAppointmentsByStatus(ctx context.Context, scope dashboard.Scope, d time.Time) (map[model.AppointmentStatus]int, error) {
	var w where
	w.scope("tenant_id", "branch_id", scope)
	w.add("appointment_date = ?::date", day(d))
	rows, err := r.pool.Query(ctx, `
		SELECT status, count(*)
		FROM appointments
		WHERE `+w.String()+`
		GROUP BY status
	`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.AppointmentStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[model.AppointmentStatus(status)] = n
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func walkInQuery(q dashboard.WalkInQuery) (string, []any) {
	var w where
	w.scope("tenant_id", "branch_id", q.Scope)
	w.add("queue_date = ?::date", day(q.Day))
	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, s := range q.Statuses {
			statuses[i] = string(s)
		}
		w.add("status = ANY(?)", statuses)
	}
	if !q.CreatedBefore.IsZero() {
		w.add("created_at <= ?", q.CreatedBefore)
	}
	order := "token_number ASC"
	if q.OrderBy == dashboard.WalkInsByCreated {
		order = "created_at ASC, token_number ASC"
	}
	sql := `
		SELECT id::text, tenant_id::text, branch_id::text, token_number, customer_name,
			COALESCE(customer_phone, ''), COALESCE(service_name, ''), COALESCE(preferred_stylist_id::text, ''),
			status, estimated_wait_minutes, queue_date, created_at
		FROM walk_ins
		WHERE ` + w.String() + `
		ORDER BY ` + order
	sql += w.limit(q.Limit)
	return sql, w.args
}

func (r *Repository) ListWalkIns(ctx context.Context, q dashboard.WalkInQuery) ([]model.WalkIn, error) {
	sql, args := walkInQuery(q)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WalkIn
	for rows.Next() {
		var wi model.WalkIn
		if err := rows.Scan(&wi.ID, &wi.TenantID, &wi.BranchID, &wi.TokenNumber, &wi.CustomerName,
			&wi.CustomerPhone, &wi.ServiceName, &wi.PreferredStylistID,
			&wi.Status, &wi.EstimatedWaitMinutes, &wi.Date, &wi.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, wi)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// ListBranchStylists returns the active stylists assigned to the branch with
// their roster for d. Stylists without a working schedule that weekday come
// back with empty shift times.
func (r *Repository) ListBranchStylists(ctx context.Context, scope dashboard.Scope, d time.Time) ([]model.Stylist, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id::text, s.name, COALESCE(sb.station_number, 0),
			COALESCE(to_char(ws.start_time, 'HH24:MI'), ''),
			COALESCE(to_char(ws.end_time, 'HH24:MI'), ''),
			EXISTS (
				SELECT 1 FROM staff_leaves l
				WHERE l.staff_id = s.id AND l.status = 'approved'
					AND $3::date BETWEEN l.start_date AND l.end_date
			)
		FROM staff s
		JOIN staff_branches sb ON sb.staff_id = s.id AND sb.is_active
		LEFT JOIN staff_schedules ws ON ws.staff_id = s.id AND ws.branch_id = sb.branch_id
			AND ws.weekday = EXTRACT(DOW FROM $3::date)::int AND ws.is_working
		WHERE s.tenant_id = $1 AND sb.branch_id = $2 AND s.is_active AND s.role = 'stylist'
		ORDER BY sb.station_number ASC NULLS LAST, s.name ASC, s.id ASC
	`, scope.TenantID, scope.BranchID, day(d))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Stylist
	for rows.Next() {
		var st model.Stylist
		if err := rows.Scan(&st.ID, &st.Name, &st.StationNumber, &st.ShiftStart, &st.ShiftEnd, &st.OnLeave); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) ListBreaks(ctx context.Context, scope dashboard.Scope, d time.Time) ([]model.Break, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT staff_id::text, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI')
		FROM staff_breaks
		WHERE tenant_id = $1 AND branch_id = $2 AND break_date = $3::date
		ORDER BY start_time ASC
	`, scope.TenantID, scope.BranchID, day(d))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Break
	for rows.Next() {
		var b model.Break
		if err := rows.Scan(&b.StylistID, &b.Start, &b.End); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) SumFinalizedRevenue(ctx context.Context, scope dashboard.Scope, from, to time.Time) (decimal.Decimal, error) {
	var w where
	w.scope("tenant_id", "branch_id", scope)
	w.add("status = 'finalized'")
	w.add("invoice_date >= ?::date AND invoice_date < ?::date", day(from), day(to))
	var total string
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(grand_total), 0)::text
		FROM invoices
		WHERE `+w.String(), w.args...).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(total)
}

func (r *Repository) InventorySummary(ctx context.Context, scope dashboard.Scope) (dashboard.InventoryCounts, error) {
	var w where
	w.scope("tenant_id", "branch_id", scope)
	var c dashboard.InventoryCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE quantity > 0 AND quantity <= reorder_level),
			count(*) FILTER (WHERE quantity <= 0)
		FROM product_stock
		WHERE `+w.String(), w.args...).Scan(&c.LowStock, &c.OutOfStock)
	return c, err
}

func (r *Repository) CountExpiringBatches(ctx context.Context, scope dashboard.Scope, from, to time.Time) (int, error) {
	var w where
	w.scope("tenant_id", "branch_id", scope)
	w.add("quantity > 0")
	w.add("expiry_date BETWEEN ?::date AND ?::date", day(from), day(to))
	return r.count(ctx, "stock_batches", w)
}

func (r *Repository) CountActiveStaff(ctx context.Context, scope dashboard.Scope) (int, error) {
	var w where
	w.scope("s.tenant_id", "sb.branch_id", scope)
	w.add("sb.is_active")
	w.add("s.is_active")
	return r.countDistinctStaff(ctx, "", w)
}

func (r *Repository) CountStaffOnLeave(ctx context.Context, scope dashboard.Scope, d time.Time) (int, error) {
	var w where
	w.scope("s.tenant_id", "sb.branch_id", scope)
	w.add("sb.is_active")
	w.add("l.status = 'approved'")
	w.add("?::date BETWEEN l.start_date AND l.end_date", day(d))
	return r.countDistinctStaff(ctx, "JOIN staff_leaves l ON l.staff_id = s.id", w)
}

func (r *Repository) countDistinctStaff(ctx context.Context, join string, w where) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(DISTINCT s.id)
		FROM staff s
		JOIN staff_branches sb ON sb.staff_id = s.id
		`+join+`
		WHERE `+w.String(), w.args...).Scan(&n)
	return n, err
}

func (r *Repository) count(ctx context.Context, table string, w where) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT count(*) FROM "+table+" WHERE "+w.String(), w.args...).Scan(&n)
	return n, err
}

package visit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/visitdesk/visitdesk/internal/platform/db"
	"github.com/visitdesk/visitdesk/pkg/pagination"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn() db.Querier { return r.pool }

const visitCols = `v.id, v.clinician_id, v.patient_id, v.doctor_name, v.type, v.notes,
	v.appointment_date, v.appointment_time, v.status, v.created_at, v.updated_at`

const joinCols = `c.id, c.name, c.mobile, p.id, p.first_name, p.last_name, p.mobile`

const visitJoins = `FROM visits v
	JOIN clinicians c ON c.id = v.clinician_id
	JOIN patients p ON p.id = v.patient_id`

const visitOrder = `ORDER BY v.appointment_date ASC NULLS LAST, v.appointment_time ASC NULLS LAST, v.id ASC`

func scanVisit(row pgx.Row, extra ...interface{}) (*Visit, error) {
	var v Visit
	var date pgtype.Date
	var clock pgtype.Time
	dest := []interface{}{&v.ID, &v.ClinicianID, &v.PatientID, &v.DoctorName, &v.Type, &v.Notes,
		&date, &clock, &v.Status, &v.CreatedAt, &v.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	v.AppointmentDate = dateFromPG(date)
	v.AppointmentTime = clockFromPG(clock)
	return &v, nil
}

func wrapWriteErr(op string, err error) error {
	if db.ForeignKeyViolation(err) {
		return ErrUnknownPatient
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	row := r.conn().QueryRow(ctx, `
		INSERT INTO visits AS v (clinician_id, patient_id, doctor_name, type, notes,
			appointment_date, appointment_time, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING `+visitCols,
		v.ClinicianID, v.PatientID, v.DoctorName, v.Type, v.Notes,
		dateToPG(v.AppointmentDate), clockToPG(v.AppointmentTime), v.Status)
	created, err := scanVisit(row)
	if err != nil {
		return wrapWriteErr("insert visit", err)
	}
	*v = *created
	return nil
}

func (r *repoPG) GetOwned(ctx context.Context, id, clinicianID int64) (*Visit, error) {
	v, err := scanVisit(r.conn().QueryRow(ctx,
		`SELECT `+visitCols+` FROM visits v WHERE v.id = $1 AND v.clinician_id = $2`, id, clinicianID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get visit %d: %w", id, err)
	}
	return v, nil
}

func (r *repoPG) Update(ctx context.Context, v *Visit) error {
	row := r.conn().QueryRow(ctx, `
		UPDATE visits AS v SET patient_id=$3, doctor_name=$4, type=$5, notes=$6,
			appointment_date=$7, appointment_time=$8, status=$9, updated_at=NOW()
		WHERE v.id = $1 AND v.clinician_id = $2
		RETURNING `+visitCols,
		v.ID, v.ClinicianID, v.PatientID, v.DoctorName, v.Type, v.Notes,
		dateToPG(v.AppointmentDate), clockToPG(v.AppointmentTime), v.Status)
	updated, err := scanVisit(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return wrapWriteErr(fmt.Sprintf("update visit %d", v.ID), err)
	}
	*v = *updated
	return nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id, clinicianID int64, to VisitStatus, from []VisitStatus) (bool, error) {
	sources := make([]string, len(from))
	for i, s := range from {
		sources[i] = string(s)
	}
	tag, err := r.conn().Exec(ctx, `
		UPDATE visits SET status = $3, updated_at = NOW()
		WHERE id = $1 AND clinician_id = $2 AND status = ANY($4)`,
		id, clinicianID, to, sources)
	if err != nil {
		return false, fmt.Errorf("update visit %d status: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) Search(ctx context.Context, p Predicate, page pagination.Params) ([]*Detail, int, error) {
	where, args := renderPredicate(p)

	var total int
	if err := r.conn().QueryRow(ctx, `SELECT COUNT(*) FROM visits v `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count visits: %w", err)
	}
	if page.OutOfRange(total) {
		return []*Detail{}, total, nil
	}

	idx := len(args) + 1
	query := fmt.Sprintf(`SELECT %s, %s %s %s %s LIMIT $%d OFFSET $%d`,
		visitCols, joinCols, visitJoins, where, visitOrder, idx, idx+1)
	args = append(args, page.Limit(), page.Offset())

	rows, err := r.conn().Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	items := make([]*Detail, 0, page.Limit())
	for rows.Next() {
		var c ClinicianSummary
		var pt PatientSummary
		v, err := scanVisit(rows, &c.ID, &c.Name, &c.Mobile, &pt.ID, &pt.FirstName, &pt.LastName, &pt.Mobile)
		if err != nil {
			return nil, 0, fmt.Errorf("scan visit: %w", err)
		}
		d := &Detail{Visit: *v, Clinician: &c, Patient: &pt}
		if p.Scope.PatientID != 0 {
			d.Patient = nil
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate visits: %w", err)
	}
	return items, total, nil
}

// renderPredicate turns p into a WHERE clause over alias v and its positional args.
func renderPredicate(p Predicate) (string, []interface{}) {
	clause := `WHERE 1=1`
	var args []interface{}
	idx := 1

	if p.Scope.ClinicianID != 0 {
		clause += fmt.Sprintf(` AND v.clinician_id = $%d`, idx)
		args = append(args, p.Scope.ClinicianID)
		idx++
	}
	if p.Scope.PatientID != 0 {
		clause += fmt.Sprintf(` AND v.patient_id = $%d`, idx)
		args = append(args, p.Scope.PatientID)
		idx++
	}
	if p.Status != "" {
		clause += fmt.Sprintf(` AND v.status = $%d`, idx)
		args = append(args, string(p.Status))
		idx++
	}
	if p.Dates != nil {
		op := "<"
		if p.Dates.ToInclusive {
			op = "<="
		}
		clause += fmt.Sprintf(` AND v.appointment_date >= $%d AND v.appointment_date %s $%d`, idx, op, idx+1)
		args = append(args, dateToPG(&p.Dates.From), dateToPG(&p.Dates.To))
		idx += 2
	}
	if p.Doctor != "" {
		clause += fmt.Sprintf(` AND v.doctor_name = $%d`, idx)
		args = append(args, p.Doctor)
		idx++
	}
	if p.Search != "" {
		clause += fmt.Sprintf(` AND (v.doctor_name ILIKE $%d OR v.notes ILIKE $%d)`, idx, idx)
		args = append(args, "%"+escapeLike(p.Search)+"%")
	}
	return clause, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/BIGM16/Ecole-desExcellents/internal/db"
	"github.com/BIGM16/Ecole-desExcellents/internal/gateway"
	"github.com/BIGM16/Ecole-desExcellents/internal/model"
	"github.com/BIGM16/Ecole-desExcellents/internal/policy"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type Store struct {
	db *db.Store
}

var _ gateway.Store = (*Store)(nil)

func NewStore(store *db.Store) *Store {
	return &Store{db: store}
}

// translate maps driver errors onto the gateway's error values.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return gateway.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return gateway.ErrDuplicate
		case foreignKeyViolation:
			return gateway.ErrNotFound
		}
	}
	return err
}

// affected turns an update or delete that matched nothing into ErrNotFound.
func affected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return gateway.ErrNotFound
	}
	return nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

const principalColumns = `id, email, password_hash, first_name, last_name, telephone, bio, role, cohort_id, is_active, is_staff, date_joined`

func scanPrincipal(row pgx.Row) (model.Principal, error) {
	var (
		p        model.Principal
		role     string
		cohortID *string
	)
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.PasswordHash,
		&p.FirstName,
		&p.LastName,
		&p.Telephone,
		&p.Bio,
		&role,
		&cohortID,
		&p.IsActive,
		&p.IsStaff,
		&p.DateJoined,
	)
	p.Role = model.Role(role)
	p.CohortID = deref(cohortID)
	return p, err
}

func collectPrincipals(rows pgx.Rows) ([]model.Principal, error) {
	defer rows.Close()
	out := []model.Principal{}
	for rows.Next() {
		p, err := scanPrincipal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPrincipal(ctx context.Context, id string) (model.Principal, error) {
	p, err := scanPrincipal(s.db.Pool.QueryRow(ctx, `SELECT `+principalColumns+` FROM principals WHERE id = $1`, id))
	return p, translate(err)
}

func (s *Store) GetPrincipalByEmail(ctx context.Context, email string) (model.Principal, error) {
	p, err := scanPrincipal(s.db.Pool.QueryRow(ctx, `SELECT `+principalColumns+` FROM principals WHERE email = $1`, email))
	return p, translate(err)
}

func (s *Store) ListPrincipals(ctx context.Context, scope policy.AccountScope) ([]model.Principal, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+principalColumns+`
		FROM principals
		WHERE ($1::text = '' OR role = $1::text)
		  AND ($2::boolean OR cohort_id = $3)
		ORDER BY date_joined, email
	`, string(scope.Role), scope.All, nullable(scope.CohortID))
	if err != nil {
		return nil, err
	}
	return collectPrincipals(rows)
}

func (s *Store) ListPrincipalsByID(ctx context.Context, ids []string) ([]model.Principal, error) {
	if len(ids) == 0 {
		return []model.Principal{}, nil
	}
	rows, err := s.db.Pool.Query(ctx, `SELECT `+principalColumns+` FROM principals WHERE id = ANY($1::text[]::uuid[])`, ids)
	if err != nil {
		return nil, err
	}
	return collectPrincipals(rows)
}

func (s *Store) CreatePrincipal(ctx context.Context, p model.Principal) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO principals (`+principalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, p.ID, p.Email, p.PasswordHash, p.FirstName, p.LastName, p.Telephone, p.Bio, string(p.Role), nullable(p.CohortID), p.IsActive, p.IsStaff, p.DateJoined)
	return translate(err)
}

func (s *Store) UpdatePrincipal(ctx context.Context, p model.Principal) error {
	return affected(s.db.Pool.Exec(ctx, `
		UPDATE principals
		SET password_hash = $2, first_name = $3, last_name = $4, telephone = $5, bio = $6,
		    role = $7, cohort_id = $8, is_active = $9, is_staff = $10
		WHERE id = $1
	`, p.ID, p.PasswordHash, p.FirstName, p.LastName, p.Telephone, p.Bio, string(p.Role), nullable(p.CohortID), p.IsActive, p.IsStaff))
}

func (s *Store) DeletePrincipal(ctx context.Context, id string) error {
	return affected(s.db.Pool.Exec(ctx, `DELETE FROM principals WHERE id = $1`, id))
}

func scanCohort(row pgx.Row) (model.Cohort, error) {
	var (
		c    model.Cohort
		name string
	)
	err := row.Scan(&c.ID, &name, &c.Year)
	c.Name = model.CohortName(name)
	return c, err
}

func (s *Store) ListCohorts(ctx context.Context) ([]model.Cohort, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT id, name, year FROM cohorts ORDER BY year, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Cohort{}
	for rows.Next() {
		c, err := scanCohort(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCohort(ctx context.Context, id string) (model.Cohort, error) {
	c, err := scanCohort(s.db.Pool.QueryRow(ctx, `SELECT id, name, year FROM cohorts WHERE id = $1`, id))
	return c, translate(err)
}

func (s *Store) CreateCohort(ctx context.Context, c model.Cohort) error {
	_, err := s.db.Pool.Exec(ctx, `INSERT INTO cohorts (id, name, year) VALUES ($1, $2, $3)`, c.ID, string(c.Name), c.Year)
	return translate(err)
}

const courseColumns = `id, title, description, created_at`

func (s *Store) GetCourse(ctx context.Context, id string) (model.Course, error) {
	var c model.Course
	err := s.db.Pool.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id).
		Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt)
	if err != nil {
		return model.Course{}, translate(err)
	}
	courses := []model.Course{c}
	if err := s.loadCourseRefs(ctx, courses); err != nil {
		return model.Course{}, err
	}
	return courses[0], nil
}

func (s *Store) ListCourses(ctx context.Context, scope policy.Scope) ([]model.Course, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+courseColumns+`
		FROM courses c
		WHERE $1::boolean OR EXISTS (
			SELECT 1 FROM course_cohorts cc WHERE cc.course_id = c.id AND cc.cohort_id = $2
		)
		ORDER BY created_at, id
	`, scope.All, nullable(scope.CohortID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Course{}
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.loadCourseRefs(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadCourseRefs fills the supervisors and cohorts of courses in link order.
func (s *Store) loadCourseRefs(ctx context.Context, courses []model.Course) error {
	if len(courses) == 0 {
		return nil
	}
	ids := make([]string, len(courses))
	index := make(map[string]int, len(courses))
	for i := range courses {
		ids[i] = courses[i].ID
		index[courses[i].ID] = i
		courses[i].Supervisors = []model.PersonRef{}
		courses[i].Cohorts = []model.Cohort{}
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT cs.course_id, p.id, p.first_name, p.last_name
		FROM course_supervisors cs
		JOIN principals p ON p.id = cs.principal_id
		WHERE cs.course_id = ANY($1::text[]::uuid[])
		ORDER BY cs.course_id, cs.position
	`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			courseID string
			ref      model.PersonRef
		)
		if err := rows.Scan(&courseID, &ref.ID, &ref.FirstName, &ref.LastName); err != nil {
			rows.Close()
			return err
		}
		i := index[courseID]
		courses[i].Supervisors = append(courses[i].Supervisors, ref)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.Pool.Query(ctx, `
		SELECT cc.course_id, co.id, co.name, co.year
		FROM course_cohorts cc
		JOIN cohorts co ON co.id = cc.cohort_id
		WHERE cc.course_id = ANY($1::text[]::uuid[])
		ORDER BY cc.course_id, cc.position
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			courseID string
			cohort   model.Cohort
			name     string
		)
		if err := rows.Scan(&courseID, &cohort.ID, &name, &cohort.Year); err != nil {
			return err
		}
		cohort.Name = model.CohortName(name)
		i := index[courseID]
		courses[i].Cohorts = append(courses[i].Cohorts, cohort)
	}
	return rows.Err()
}

func (s *Store) CreateCourse(ctx context.Context, course model.Course) error {
	return translate(s.db.WithTx(ctx, func(q db.Querier) error {
		if _, err := q.Exec(ctx, `
			INSERT INTO courses (id, title, description, created_at) VALUES ($1, $2, $3, $4)
		`, course.ID, course.Title, course.Description, course.CreatedAt); err != nil {
			return err
		}
		return replaceCourseLinks(ctx, q, course)
	}))
}

func (s *Store) UpdateCourse(ctx context.Context, course model.Course) error {
	return translate(s.db.WithTx(ctx, func(q db.Querier) error {
		if err := affected(q.Exec(ctx, `
			UPDATE courses SET title = $2, description = $3 WHERE id = $1
		`, course.ID, course.Title, course.Description)); err != nil {
			return err
		}
		return replaceCourseLinks(ctx, q, course)
	}))
}

func replaceCourseLinks(ctx context.Context, q db.Querier, course model.Course) error {
	if _, err := q.Exec(ctx, `DELETE FROM course_supervisors WHERE course_id = $1`, course.ID); err != nil {
		return err
	}
	for i, id := range course.SupervisorIDs() {
		if _, err := q.Exec(ctx, `
			INSERT INTO course_supervisors (course_id, principal_id, position) VALUES ($1, $2, $3)
		`, course.ID, id, i); err != nil {
			return err
		}
	}
	if _, err := q.Exec(ctx, `DELETE FROM course_cohorts WHERE course_id = $1`, course.ID); err != nil {
		return err
	}
	for i, id := range course.CohortIDs() {
		if _, err := q.Exec(ctx, `
			INSERT INTO course_cohorts (course_id, cohort_id, position) VALUES ($1, $2, $3)
		`, course.ID, id, i); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	return affected(s.db.Pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id))
}

const scheduleColumns = `id, title, description, course_id, start_at, end_at, location, cohort_id, created_at`

func scanSchedule(row pgx.Row) (model.Schedule, error) {
	var (
		sc       model.Schedule
		courseID *string
		cohortID *string
	)
	err := row.Scan(&sc.ID, &sc.Title, &sc.Description, &courseID, &sc.StartAt, &sc.EndAt, &sc.Location, &cohortID, &sc.CreatedAt)
	sc.CourseID = deref(courseID)
	sc.CohortID = deref(cohortID)
	return sc, err
}

func (s *Store) GetSchedule(ctx context.Context, id string) (model.Schedule, error) {
	sc, err := scanSchedule(s.db.Pool.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id))
	return sc, translate(err)
}

func (s *Store) ListSchedules(ctx context.Context, scope policy.Scope) ([]model.Schedule, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE $1::boolean OR cohort_id = $2
		ORDER BY start_at, id
	`, scope.All, nullable(scope.CohortID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Schedule{}
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *Store) CreateSchedule(ctx context.Context, sc model.Schedule) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO schedules (`+scheduleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, sc.ID, sc.Title, sc.Description, nullable(sc.CourseID), sc.StartAt, sc.EndAt, sc.Location, nullable(sc.CohortID), sc.CreatedAt)
	return translate(err)
}

func (s *Store) UpdateSchedule(ctx context.Context, sc model.Schedule) error {
	return affected(s.db.Pool.Exec(ctx, `
		UPDATE schedules
		SET title = $2, description = $3, course_id = $4, start_at = $5, end_at = $6, location = $7, cohort_id = $8
		WHERE id = $1
	`, sc.ID, sc.Title, sc.Description, nullable(sc.CourseID), sc.StartAt, sc.EndAt, sc.Location, nullable(sc.CohortID)))
}

func (s *Store) DeleteSchedule(ctx context.Context, id string) error {
	return affected(s.db.Pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id))
}

const documentColumns = `id, course_id, title, category, added_at, uploaded_by`

func scanDocument(row pgx.Row) (model.Document, error) {
	var (
		d          model.Document
		category   string
		uploadedBy *string
	)
	err := row.Scan(&d.ID, &d.CourseID, &d.Title, &category, &d.AddedAt, &uploadedBy)
	d.Category = model.DocumentCategory(category)
	d.UploadedBy = deref(uploadedBy)
	return d, err
}

func (s *Store) GetDocument(ctx context.Context, id string) (model.Document, error) {
	d, err := scanDocument(s.db.Pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	return d, translate(err)
}

func (s *Store) ListDocuments(ctx context.Context, courseID string) ([]model.Document, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE course_id = $1 ORDER BY added_at, id
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) CreateDocument(ctx context.Context, d model.Document) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO documents (`+documentColumns+`) VALUES ($1, $2, $3, $4, $5, $6)
	`, d.ID, d.CourseID, d.Title, string(d.Category), d.AddedAt, nullable(d.UploadedBy))
	return translate(err)
}

const fileColumns = `id, document_id, blob_key, name, content_type, size, added_at, uploaded_by`

func scanFile(row pgx.Row) (model.DocumentFile, error) {
	var (
		f          model.DocumentFile
		uploadedBy *string
	)
	err := row.Scan(&f.ID, &f.DocumentID, &f.BlobKey, &f.Name, &f.ContentType, &f.Size, &f.AddedAt, &uploadedBy)
	f.UploadedBy = deref(uploadedBy)
	return f, err
}

func (s *Store) GetDocumentFile(ctx context.Context, id string) (model.DocumentFile, error) {
	f, err := scanFile(s.db.Pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM document_files WHERE id = $1`, id))
	return f, translate(err)
}

func (s *Store) ListDocumentFiles(ctx context.Context, documentID string) ([]model.DocumentFile, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+fileColumns+` FROM document_files WHERE document_id = $1 ORDER BY added_at, id
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.DocumentFile{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) CreateDocumentFile(ctx context.Context, f model.DocumentFile) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO document_files (`+fileColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, f.ID, f.DocumentID, f.BlobKey, f.Name, f.ContentType, f.Size, f.AddedAt, nullable(f.UploadedBy))
	return translate(err)
}

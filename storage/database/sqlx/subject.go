package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/darasa/core/subject"
)

type subjectRepository struct {
	db *sqlx.DB
}

var _ subject.Repository = (*subjectRepository)(nil)

func NewSubjectRepository(db *sqlx.DB) subject.Repository {
	return &subjectRepository{db: db}
}

type subjectRow struct {
	ID              string    `db:"id"`
	Code            string    `db:"code"`
	Name            string    `db:"name"`
	PrerequisiteIDs jsonRaw   `db:"prerequisite_ids"`
	Status          string    `db:"status"`
	CreatedBy       string    `db:"created_by"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r subjectRow) unrow() subject.Subject {
	sub := subject.Subject{
		ID:        r.ID,
		Code:      r.Code,
		Name:      r.Name,
		Status:    subject.Status(r.Status),
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	unmarshalJSON(r.PrerequisiteIDs, &sub.PrerequisiteIDs)
	return sub
}

func (repo *subjectRepository) CheckCodeUniqueness(code string) error {
	var exists bool
	err := repo.db.Get(&exists, `SELECT EXISTS (SELECT 1 FROM subject WHERE code = $1)`, code)
	if err != nil {
		return err
	}
	if exists {
		return subject.ErrCodeExists
	}
	return nil
}

func (repo *subjectRepository) CreateSubject(sub subject.Subject) (subject.Subject, error) {
	const q = `INSERT INTO subject (id, code, name, prerequisite_ids, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.Exec(q,
		sub.ID, sub.Code, sub.Name, marshalJSON(sub.PrerequisiteIDs), string(sub.Status),
		sub.CreatedBy, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "subject_code_key") {
			return subject.Subject{}, subject.ErrCodeExists
		}
		return subject.Subject{}, err
	}
	return sub, nil
}

func (repo *subjectRepository) GetSubjectByID(id string) (subject.Subject, error) {
	return repo.get(`SELECT * FROM subject WHERE id = $1`, id)
}

func (repo *subjectRepository) GetSubjectByCode(code string) (subject.Subject, error) {
	return repo.get(`SELECT * FROM subject WHERE code = $1`, code)
}

func (repo *subjectRepository) get(query string, arg interface{}) (subject.Subject, error) {
	var row subjectRow
	if err := repo.db.Get(&row, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return subject.Subject{}, subject.ErrNotFound
		}
		return subject.Subject{}, err
	}
	return row.unrow(), nil
}

func (repo *subjectRepository) QueryAllSubjects() ([]subject.Subject, error) {
	var rows []subjectRow
	if err := repo.db.Select(&rows, `SELECT * FROM subject ORDER BY code`); err != nil {
		return nil, err
	}
	subs := make([]subject.Subject, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.unrow())
	}
	return subs, nil
}

func (repo *subjectRepository) UpdateSubjectStatus(id string, status subject.Status) (subject.Subject, error) {
	var row subjectRow
	const q = `UPDATE subject SET status = $2, updated_at = now() WHERE id = $1 RETURNING *`
	if err := repo.db.QueryRowx(q, id, string(status)).StructScan(&row); err != nil {
		if err == sql.ErrNoRows {
			return subject.Subject{}, subject.ErrNotFound
		}
		return subject.Subject{}, err
	}
	return row.unrow(), nil
}

func (repo *subjectRepository) UpdateSubjectPrerequisites(id string, prereqIDs []string) (subject.Subject, error) {
	var row subjectRow
	const q = `UPDATE subject SET prerequisite_ids = $2, updated_at = now() WHERE id = $1 RETURNING *`
	if err := repo.db.QueryRowx(q, id, marshalJSON(prereqIDs)).StructScan(&row); err != nil {
		if err == sql.ErrNoRows {
			return subject.Subject{}, subject.ErrNotFound
		}
		return subject.Subject{}, err
	}
	return row.unrow(), nil
}

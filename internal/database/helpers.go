package database

import "database/sql"

// execRequireRows turns a zero-row write into notFoundErr so callers can
// tell "no such target/job" apart from a successful update.
func execRequireRows(result sql.Result, err, notFoundErr error) error {
	if err != nil {
		return err
	}

	affected, raErr := result.RowsAffected()
	if raErr != nil {
		return raErr
	}
	if affected == 0 {
		return notFoundErr
	}

	return nil
}

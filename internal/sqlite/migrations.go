package sqlite

func (s Storage) RunMigrations() error {
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS credentials (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type VARCHAR NOT NULL,
		key TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uid VARCHAR NOT NULL UNIQUE,
		title VARCHAR NOT NULL,
		starts_at TIMESTAMP NOT NULL,
		ends_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS booking_references (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		booking_id INTEGER NOT NULL,
		type VARCHAR NOT NULL,
		uid VARCHAR NOT NULL,
		meeting_id VARCHAR NOT NULL DEFAULT "",
		meeting_password VARCHAR NOT NULL DEFAULT "",
		meeting_url VARCHAR NOT NULL DEFAULT "",
		FOREIGN KEY (booking_id) REFERENCES bookings (id)
	)`,
	`CREATE TABLE IF NOT EXISTS attendees (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		booking_id INTEGER NOT NULL,
		name VARCHAR NOT NULL,
		email VARCHAR NOT NULL,
		time_zone VARCHAR NOT NULL DEFAULT "",
		FOREIGN KEY (booking_id) REFERENCES bookings (id)
	)`,
}

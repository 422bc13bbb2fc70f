package storage

const schema = `
CREATE TABLE IF NOT EXISTS parking_spots (
	id INTEGER PRIMARY KEY,
	spot_number INTEGER NOT NULL,
	row_number INTEGER NOT NULL,
	floor_number INTEGER NOT NULL,
	UNIQUE (floor_number, row_number, spot_number)
);

CREATE TABLE IF NOT EXISTS parking_usage (
	id INTEGER PRIMARY KEY,
	spot_id INTEGER NOT NULL,
	registration_plate TEXT NOT NULL,
	entry_time TIMESTAMP,
	exit_time TIMESTAMP,
	FOREIGN KEY (spot_id) REFERENCES parking_spots(id)
);

CREATE TABLE IF NOT EXISTS payments (
	usage_id INTEGER PRIMARY KEY,
	registration_plate TEXT NOT NULL,
	amount DECIMAL(5, 2) NOT NULL,
	FOREIGN KEY (usage_id) REFERENCES parking_usage(id)
);

CREATE TABLE IF NOT EXISTS premium_cars (
	registration_plate TEXT PRIMARY KEY
);

CREATE INDEX IF NOT EXISTS idx_usage_spot ON parking_usage(spot_id, entry_time);
`

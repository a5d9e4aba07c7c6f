package qmcsim

// results.go keeps the reports of runs in a sqlite database, so that sweeps over
// architectures and parameters can be collected and compared.  A run is keyed
// by the fingerprint of its inputs; recording a run with a known fingerprint
// replaces the earlier report.

import (
	"bytes"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/crypto/sha3"
)

const resultsSchema = `CREATE TABLE IF NOT EXISTS runs (
	fingerprint TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	execution_time REAL NOT NULL,
	intercore_comms INTEGER NOT NULL,
	coherence REAL NOT NULL,
	report TEXT NOT NULL
)`

// RunFingerprint is the hex SHA3-256 digest of the circuit, architecture,
// and parameters of a run
func RunFingerprint(circuit *Circuit, arch *Architecture, params *Parameters) (string, error) {
	var buf bytes.Buffer
	if _, err := circuit.WriteTo(&buf); err != nil {
		return "", err
	}

	archBytes, err := sonnet.Marshal(arch.Desc())
	if err != nil {
		return "", err
	}
	paramBytes, err := sonnet.Marshal(*params)
	if err != nil {
		return "", err
	}
	buf.Write(archBytes)
	buf.Write(paramBytes)

	digest := sha3.Sum256(buf.Bytes())
	return hex.EncodeToString(digest[:]), nil
}

// ResultRow is the summary of one recorded run
type ResultRow struct {
	Fingerprint    string
	Name           string
	ExecutionTime  float64
	IntercoreComms int
	Coherence      float64
}

// ResultsDB is a sqlite store of run reports
type ResultsDB struct {
	db *sql.DB
}

// OpenResultsDB opens, creating it if needed, the database in the named file
func OpenResultsDB(dbPath string) (*ResultsDB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err = db.Exec(resultsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating results table in %s: %w", dbPath, err)
	}
	return &ResultsDB{db: db}, nil
}

// Record stores the report under its fingerprint, which must be set
func (rdb *ResultsDB) Record(name string, rpt *Report) error {
	if len(rpt.Fingerprint) == 0 {
		return errors.New("report without fingerprint")
	}
	encoded, err := sonnet.Marshal(*rpt)
	if err != nil {
		return err
	}
	_, err = rdb.db.Exec(`INSERT OR REPLACE INTO runs
		(fingerprint, name, execution_time, intercore_comms, coherence, report) VALUES (?, ?, ?, ?, ?, ?)`,
		rpt.Fingerprint, name, rpt.ExecutionTime, rpt.IntercoreComms, rpt.Coherence, string(encoded))
	return err
}

// Lookup returns the report recorded under the fingerprint.  The flag is false if there is none.
func (rdb *ResultsDB) Lookup(fingerprint string) (*Report, bool, error) {
	var encoded string
	err := rdb.db.QueryRow("SELECT report FROM runs WHERE fingerprint=?", fingerprint).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	rpt := new(Report)
	if err = sonnet.Unmarshal([]byte(encoded), rpt); err != nil {
		return nil, false, err
	}
	return rpt, true, nil
}

// List summarizes every recorded run, fastest first
func (rdb *ResultsDB) List() ([]ResultRow, error) {
	rows, err := rdb.db.Query(`SELECT fingerprint, name, execution_time, intercore_comms, coherence
		FROM runs ORDER BY execution_time, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]ResultRow, 0)
	for rows.Next() {
		var rr ResultRow
		if err = rows.Scan(&rr.Fingerprint, &rr.Name, &rr.ExecutionTime, &rr.IntercoreComms, &rr.Coherence); err != nil {
			return nil, err
		}
		results = append(results, rr)
	}
	return results, rows.Err()
}

// Close releases the database
func (rdb *ResultsDB) Close() error {
	return rdb.db.Close()
}

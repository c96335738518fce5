// Package metadata persists experiment metadata (configuration, environment,
// phase timings) in a Cassandra cluster, keyed by experiment id. Recording is
// optional: experiments on clusters without a metadata database simply never
// connect.
package metadata

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"

	"github.com/glennklockwood/iopup/pkg/conf"
)

const (
	kindEmpty   = ""
	kindFlags   = "flags"
	kindEnviron = "environ"
	kindPhase   = "phase"
)

// AddressFlag selects the metadata database. The default "none" disables
// metadata recording entirely.
var AddressFlag = conf.NewStringFlag(
	"metadata_db",
	"Address of the Cassandra instance that stores experiment metadata; 'none' disables recording",
	"none")

// Enabled reports whether a metadata database is configured.
func Enabled() bool {
	return AddressFlag.Value() != "none"
}

// Config encodes the settings for connecting to the database.
type Config struct {
	Address           string
	Username          string
	Password          string
	ConnectionTimeout time.Duration
}

// DefaultConfig returns a setup which uses the flag-selected Cassandra
// address without authentication.
func DefaultConfig() Config {
	return Config{
		Address: AddressFlag.Value(),
	}
}

// Map encodes the key value pairs to be stored.
type Map map[string]string

// Metadata keeps the Cassandra session alive and holds the experiment id to
// tag recorded metadata with.
type Metadata struct {
	experimentID string
	config       Config
	session      *gocql.Session
}

// New returns the Metadata helper from an experiment id and configuration.
// Connect still needs to be called to get an active session.
func New(experimentID string, config Config) *Metadata {
	return &Metadata{
		experimentID: experimentID,
		config:       config,
	}
}

// Connect creates a session to the Cassandra cluster and ensures the iopup
// keyspace and metadata table exist. It should be called once.
func (m *Metadata) Connect() error {
	cluster := gocql.NewCluster(m.config.Address)
	cluster.Consistency = gocql.LocalOne
	cluster.SerialConsistency = gocql.LocalSerial
	cluster.ProtoVersion = 4
	cluster.Timeout = m.config.ConnectionTimeout

	if m.config.Username != "" && m.config.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: m.config.Username,
			Password: m.config.Password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return errors.Wrapf(err, "could not connect to metadata database at %q", m.config.Address)
	}
	m.session = session

	if err := session.Query("CREATE KEYSPACE IF NOT EXISTS iopup WITH REPLICATION = {'class': 'SimpleStrategy', 'replication_factor': 1};").Exec(); err != nil {
		return errors.Wrap(err, "could not create metadata keyspace")
	}

	// Schema consistency is not guaranteed by the CREATE query itself; a
	// simple read forces agreement before the table is used.
	if err = session.Query("SELECT * FROM system_schema.keyspaces;").Exec(); err != nil {
		return err
	}

	if err = session.Query("CREATE TABLE IF NOT EXISTS iopup.metadata (experiment_id text, kind text, time timestamp, timeuuid TIMEUUID, metadata map<text,text>, PRIMARY KEY ((experiment_id), timeuuid),) WITH CLUSTERING ORDER BY (timeuuid DESC);").Exec(); err != nil {
		return errors.Wrap(err, "could not create metadata table")
	}

	if err = session.Query("SELECT * FROM system_schema.keyspaces;").Exec(); err != nil {
		return err
	}

	return nil
}

func (m *Metadata) storeMap(metadata Map, kind string) error {
	return m.session.Query(`INSERT INTO iopup.metadata (experiment_id, kind, time, timeuuid, metadata) VALUES (?, ?, ?, ?, ?)`,
		m.experimentID, kind, time.Now(), gocql.TimeUUID(), metadata).Exec()
}

// Record stores a key and value and associates them with the experiment id.
func (m *Metadata) Record(key string, value string) error {
	return m.storeMap(Map{key: value}, kindEmpty)
}

// RecordMap stores a key and value map and associates it with the experiment id.
func (m *Metadata) RecordMap(metadata Map) error {
	return m.storeMap(metadata, kindEmpty)
}

// RecordFlags saves the whole flag based configuration in the metadata
// information.
func (m *Metadata) RecordFlags() error {
	return m.storeMap(conf.GetFlags(), kindFlags)
}

// RecordEnv adds all OS environment variables that start with prefix in the
// metadata information.
func (m *Metadata) RecordEnv(prefix string) error {
	metadata := Map{}
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, prefix) {
			fields := strings.SplitN(env, "=", 2)
			metadata[fields[0]] = fields[1]
		}
	}
	return m.storeMap(metadata, kindEnviron)
}

// RecordPhase stores one completed measurement phase: its labels, node
// partition and wall-clock bounds.
func (m *Metadata) RecordPhase(role, contention string, primaryNodes, secondaryNodes int, start, end time.Time) error {
	return m.storeMap(Map{
		"role":            role,
		"contention":      contention,
		"primary_nodes":   fmt.Sprintf("%d", primaryNodes),
		"secondary_nodes": fmt.Sprintf("%d", secondaryNodes),
		"start":           start.Format(time.RFC3339Nano),
		"end":             end.Format(time.RFC3339Nano),
	}, kindPhase)
}

// Get retrieves all metadata maps stored for the experiment id.
func (m *Metadata) Get() ([]Map, error) {
	var metadata Map

	out := []Map{}
	iter := m.session.Query(`SELECT metadata FROM iopup.metadata WHERE experiment_id = ?`, m.experimentID).Iter()
	for iter.Scan(&metadata) {
		out = append(out, metadata)
	}
	if err := iter.Close(); err != nil {
		return []Map{}, err
	}

	return out, nil
}

// Clear deletes all metadata entries associated with the current experiment id.
func (m *Metadata) Clear() error {
	return m.session.Query(`DELETE FROM iopup.metadata WHERE experiment_id = ?`, m.experimentID).Exec()
}

/*
Package storage provides the pluggable persisted key/value abstraction used by the tracker.

# Store Interface

The lifecycle engine only needs get/put/clear over a small set of primitive values, so every
backend implements the same narrow contract:

	type Store interface {
	    Get(ctx context.Context, key string) (Value, bool, error)
	    Commit(ctx context.Context, batch *Batch) error
	    Clear(ctx context.Context) error
	    Close() error
	}

Backends:
  - memory: in-process map, for tests and short-lived tools
  - badger: BadgerDB on local disk, the default on-device store
  - redis: one hash per install, for trackers running server-side on behalf of many installs
  - sqlite: a single-file database, for hosts that already ship SQLite

# Atomic Commits

Puts are staged in a Batch and applied with one Commit. A backend must apply every put of a
batch or none of them: a launch that fails half way must leave the previous record readable.

	batch := storage.NewBatch().
	    Put("LaunchCount", storage.IntValue(3)).
	    Put("LastLaunchDate", storage.StringValue("20240316"))
	if err := store.Commit(ctx, batch); err != nil {
	    return err
	}

# Values

Value is a tagged primitive. Readers use AsInt, AsBool and AsString, which accept the string
form as well so records written by older schemas (that stored everything as text) stay readable.

# Namespaces

Backends shared between several installs (badger directories, redis databases) take a Namespace
in their Config. Keys are prefixed with a hash of the namespace so two installs never see each
other's records, and Clear only removes the keys of its own namespace.
*/
package storage

// Package nodeserver implements a reference node status endpoint.
//
// It exists so the watcher can be run and tested against something real
// without a full node deployment. `nodewatch serve` starts it.
//
// # Routes
//
//	GET /status   NodeStatus JSON (same wire type the watcher decodes)
//	GET /version  node software version, text/plain
//	GET /cacert   CA certificate as a PEM attachment, 404 {"msg":...} when absent
//	GET /metrics  Prometheus exposition
//
// Unknown routes answer 404 with a {"msg": ...} body so watchers classify
// them as structured server errors.
//
// # Sampling
//
//	cron "@every 2s" ──> Sampler.Run ──> gopsutil cpu/disk + peers.yaml
//	                                        │
//	                                        ▼
//	                               go-cache (TTL 10s) ──> /status
//	                                        │
//	                                        └──────────> gauges on /metrics
//
// CPU load is reported as a whole percent. Storage is the usage of the data
// directory's volume; max_storage overrides the capacity. When no fresh
// sample exists both storage values are -1 ("-1 B"), which the watcher
// normalizes before drawing the meter. Uptime is h:mm:ss since start.
//
// # Configuration
//
// LoadConfig layers defaults, nodewatch-serve.yaml, NODEWATCH_* environment
// variables and bound cobra flags through viper:
//
//	addr: 127.0.0.1:8080
//	node_id: ""          # random UUID when blank
//	version: dev
//	data_dir: .
//	max_storage: 0       # bytes; 0 uses the volume size
//	peers_file: peers.yaml
//	cacert_file: ""
//	sample_spec: "@every 2s"
//	sample_ttl: 10s
//	services:
//	  - name: i5.las2peer.services.Example
//	    version: 1.0.0
//	    alias: example
package nodeserver

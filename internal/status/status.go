package status

import "strings"

// Placeholder is shown for every text field until the first status arrives.
const Placeholder = "..."

// NodeStatus mirrors the payload returned by {endpoint}/status.
type NodeStatus struct {
	NodeID            string         `json:"nodeId"`
	CPULoad           float64        `json:"cpuLoad"`
	StorageSize       int64          `json:"storageSize"`
	MaxStorageSize    int64          `json:"maxStorageSize"`
	StorageSizeStr    string         `json:"storageSizeStr"`
	MaxStorageSizeStr string         `json:"maxStorageSizeStr"`
	Uptime            string         `json:"uptime"`
	OtherNodes        []string       `json:"otherNodes"`
	LocalServices     []LocalService `json:"localServices,omitempty"`
}

// LocalService describes a service running on the node.
type LocalService struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Swagger string `json:"swagger"`
}

// Initial returns the value displayed before any fetch has succeeded.
// MaxStorageSize is 1 so the storage meter always has a non-zero denominator.
func Initial() NodeStatus {
	return NodeStatus{
		NodeID:            Placeholder,
		StorageSize:       0,
		MaxStorageSize:    1,
		StorageSizeStr:    Placeholder,
		MaxStorageSizeStr: Placeholder,
		Uptime:            Placeholder,
	}
}

// StorageRatio returns used/capacity clamped to [0, 1].
func (s NodeStatus) StorageRatio() float64 {
	if s.MaxStorageSize <= 0 || s.StorageSize <= 0 {
		return 0
	}
	ratio := float64(s.StorageSize) / float64(s.MaxStorageSize)
	if ratio > 1 {
		return 1
	}
	return ratio
}

// Peers returns the known peer identifiers with blank entries removed,
// preserving server order.
func (s NodeStatus) Peers() []string {
	out := make([]string, 0, len(s.OtherNodes))
	for _, node := range s.OtherNodes {
		if strings.TrimSpace(node) == "" {
			continue
		}
		out = append(out, node)
	}
	return out
}

// Clone returns a deep copy of s.
func (s NodeStatus) Clone() NodeStatus {
	dup := s
	if s.OtherNodes != nil {
		dup.OtherNodes = append([]string(nil), s.OtherNodes...)
	}
	if s.LocalServices != nil {
		dup.LocalServices = append([]LocalService(nil), s.LocalServices...)
	}
	return dup
}

func normalize(s NodeStatus) NodeStatus {
	if s.MaxStorageSize <= 0 {
		s.MaxStorageSize = 1
	}
	return s
}

package storage

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ObjectLocation describes where an attachment blob should live.
type ObjectLocation struct {
	Bucket   string
	FullPath string
}

// ResolveObjectLocation combines the tenant partition and a logical key into a
// bucket/path pair.
//   - bucket must come from deployment configuration (one bucket per environment class).
//   - logicalKey is a tenant-relative key such as
//     "patients/<patient_uuid>/attachments/<file_name>".
func ResolveObjectLocation(tenantID uuid.UUID, bucket string, logicalKey string) (ObjectLocation, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return ObjectLocation{}, fmt.Errorf("bucket is required")
	}
	if tenantID == uuid.Nil {
		return ObjectLocation{}, fmt.Errorf("tenant id is required")
	}

	key := strings.TrimSpace(logicalKey)
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return ObjectLocation{}, fmt.Errorf("logical key is required")
	}

	fullPath := "tenants/" + tenantID.String() + "/" + key
	return ObjectLocation{Bucket: bucket, FullPath: fullPath}, nil
}

package exchange

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/osteokit/cabinet/pkg/types"
)

// canonicalJSON re-marshals v through an untyped tree so the digest does
// not depend on Go struct field order or omitted-field details of the
// producing side. Map keys come out sorted, which is what makes the
// digest stable across implementations.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}

// Checksum computes the integrity digest of an export's entity payload.
// Metadata is excluded so the digest can live inside it.
func Checksum(entities types.ExportEntities) (string, error) {
	canon, err := canonicalJSON(entities)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// Package schema describes flow log record layouts. A Schema is an ordered
// list of field names drawn from the canonical catalog; it splits a raw line
// into typed field values.
package schema

// FieldKind is the primitive type a catalog field carries on the wire.
type FieldKind int

const (
	// KindString fields are kept verbatim after trimming.
	KindString FieldKind = iota

	// KindInt fields are decimal integers. The sentinel and unparseable
	// tokens resolve to an absent value, never to zero.
	KindInt
)

// Sentinel is the token AWS writes for a field that does not apply to a
// record, such as the port columns of an ICMP flow.
const Sentinel = "-"

// Catalog fields the engine reads directly.
const (
	FieldDstPort  = "dstport"
	FieldProtocol = "protocol"
)

// catalog maps every canonical field name published for flow log versions
// 2 through 7 to its kind. Built at init, read-only afterwards.
var catalog = map[string]FieldKind{
	// version 2, the default format
	"version":      KindInt,
	"account-id":   KindString,
	"interface-id": KindString,
	"srcaddr":      KindString,
	"dstaddr":      KindString,
	"srcport":      KindInt,
	FieldDstPort:   KindInt,
	FieldProtocol:  KindInt,
	"packets":      KindInt,
	"bytes":        KindInt,
	"start":        KindInt,
	"end":          KindInt,
	"action":       KindString,
	"log-status":   KindString,

	// version 3
	"vpc-id":      KindString,
	"subnet-id":   KindString,
	"instance-id": KindString,
	"tcp-flags":   KindInt,
	"type":        KindString,
	"pkt-srcaddr": KindString,
	"pkt-dstaddr": KindString,

	// version 4
	"region":           KindString,
	"az-id":            KindString,
	"sublocation-type": KindString,
	"sublocation-id":   KindString,

	// version 5
	"pkt-src-aws-service": KindString,
	"pkt-dst-aws-service": KindString,
	"flow-direction":      KindString,
	"traffic-path":        KindInt,

	// version 7 (ECS)
	"ecs-cluster-arn":            KindString,
	"ecs-cluster-name":           KindString,
	"ecs-container-instance-arn": KindString,
	"ecs-container-instance-id":  KindString,
	"ecs-container-id":           KindString,
	"ecs-second-container-id":    KindString,
	"ecs-service-name":           KindString,
	"ecs-task-definition-arn":    KindString,
	"ecs-task-arn":               KindString,
	"ecs-task-id":                KindString,

	"reject-reason": KindString,
}

// KindOf reports the kind of a canonical field name and whether the name
// exists in the catalog at all.
func KindOf(name string) (FieldKind, bool) {
	kind, ok := catalog[name]
	return kind, ok
}

// CatalogSize returns the number of canonical field names known.
func CatalogSize() int {
	return len(catalog)
}

// Package model defines the Mökkiwahti entities and their JSON contracts.
//
// Each entity converts to and from a Document. Serialize(true) produces the
// short form, which carries only the entity's own scalar fields. Serialize(false)
// additionally embeds related entities in their short form, so expansion is
// always exactly one level deep and never cycles.
//
// The *Schema functions return the JSON Schema each inbound document must
// satisfy before Deserialize is called; see package schema.
package model

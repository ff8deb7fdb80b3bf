// Package worldid defines the entity identifier type shared by the
// world's leaf packages (chunk generation, the entity registry, the
// visibility engine and the chunk-loader system) so none of them has to
// import the top-level world package just to name an entity.
package worldid

// EntityID uniquely identifies one live entity within a World.
type EntityID int32

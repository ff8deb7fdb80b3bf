package server

// DefaultRegistryCodec returns the minimal dimension-type/biome registry
// blob a vanilla 1.19-era client expects as the NBT payload of JoinGame,
// per spec.md §6 "registry-codec blob". It describes exactly the one
// dimension and one biome this server actually uses.
func DefaultRegistryCodec() map[string]any {
	return map[string]any{
		"minecraft:dimension_type": map[string]any{
			"type": "minecraft:dimension_type",
			"value": []any{
				map[string]any{
					"name": "minecraft:overworld",
					"id":   int32(0),
					"element": map[string]any{
						"piglin_safe":            byte(0),
						"natural":                byte(1),
						"ambient_light":          float32(0),
						"monster_spawn_block_light_limit": int32(0),
						"infiniburn":             "#minecraft:infiniburn_overworld",
						"respawn_anchor_works":   byte(0),
						"has_skylight":           byte(1),
						"bed_works":              byte(1),
						"effects":                "minecraft:overworld",
						"has_raids":              byte(1),
						"logical_height":         int32(384),
						"coordinate_scale":       float64(1),
						"monster_spawn_light_level": int32(0),
						"min_y":                  int32(-64),
						"ultrawarm":              byte(0),
						"has_ceiling":            byte(0),
						"height":                 int32(384),
					},
				},
			},
		},
		"minecraft:worldgen/biome": map[string]any{
			"type": "minecraft:worldgen/biome",
			"value": []any{
				map[string]any{
					"name": "minecraft:plains",
					"id":   int32(0),
					"element": map[string]any{
						"precipitation": "none",
						"temperature":   float32(0.8),
						"downfall":      float32(0.4),
						"effects": map[string]any{
							"sky_color":       int32(7907327),
							"water_fog_color": int32(329011),
							"fog_color":       int32(12638463),
							"water_color":     int32(4159204),
						},
					},
				},
			},
		},
	}
}

package passphrase

// words is the curated passphrase vocabulary: short, concrete, easy to
// say over the phone. Read-only after init; never reorder entries in a
// way that shrinks the list, entropy depends on its size.
var words = []string{
	// nature
	"river", "stone", "cloud", "storm", "frost", "ember", "creek", "ridge",
	"grove", "marsh", "dune", "cliff", "brook", "glade", "mist", "rain",
	"snow", "wind", "wave", "tide", "delta", "canyon", "mesa", "summit",
	"valley", "meadow", "prairie", "tundra", "geyser", "lagoon", "reef", "shore",
	"island", "harbor", "bay", "fjord", "glacier", "aurora", "comet", "nebula",
	"meteor", "eclipse", "horizon", "zenith", "dawn", "dusk", "noon", "night",
	"spring", "summer", "autumn", "winter", "thunder", "lightning", "rainbow", "drizzle",
	// colors
	"amber", "azure", "coral", "crimson", "indigo", "ivory", "jade", "lilac",
	"maroon", "ochre", "olive", "pearl", "plum", "rose", "ruby", "russet",
	"saffron", "sage", "scarlet", "sienna", "silver", "slate", "teal", "umber",
	"violet", "cobalt", "copper", "golden", "bronze", "cerulean", "magenta", "sepia",
	// fauna
	"falcon", "heron", "otter", "badger", "lynx", "marten", "osprey", "owl",
	"raven", "robin", "sparrow", "swift", "tern", "wren", "crane", "egret",
	"finch", "hawk", "ibis", "jay", "kestrel", "lark", "magpie", "nightjar",
	"oriole", "pelican", "plover", "quail", "swan", "thrush", "vireo", "warbler",
	"beaver", "bison", "caribou", "deer", "elk", "ermine", "ferret", "fox",
	"hare", "hedgehog", "ibex", "jackal", "koala", "lemur", "marmot", "moose",
	"narwhal", "ocelot", "panda", "puffin", "rabbit", "seal", "stoat", "tapir",
	"vole", "walrus", "weasel", "wolf", "wombat", "yak", "zebra", "gecko",
	"salmon", "trout", "minnow", "perch", "pike", "sturgeon", "bass", "carp",
	// flora
	"alder", "aspen", "birch", "cedar", "cypress", "elm", "fir", "hazel",
	"hawthorn", "hemlock", "juniper", "larch", "laurel", "linden", "maple", "oak",
	"pine", "poplar", "rowan", "spruce", "willow", "acacia", "bamboo", "baobab",
	"clover", "daisy", "fern", "heather", "iris", "jasmine", "lavender", "lily",
	"lotus", "marigold", "moss", "orchid", "peony", "poppy", "primrose", "sedge",
	"thistle", "tulip", "verbena", "yarrow", "zinnia", "bramble", "bracken", "reed",
	"aster", "azalea", "begonia", "camellia", "dahlia", "freesia", "gardenia", "hibiscus",
	// materials
	"basalt", "cotton", "flint", "granite", "iron", "linen", "marble", "oakwood",
	"obsidian", "quartz", "shale", "steel", "velvet", "wicker", "wool", "brass",
	"ceramic", "canvas", "leather", "parchment", "pewter", "porcelain", "suede", "timber",
	"amethyst", "beryl", "garnet", "opal", "topaz", "onyx", "agate", "jasper",
	// qualities
	"bright", "brisk", "calm", "clever", "crisp", "deft", "eager", "fleet",
	"gentle", "hardy", "keen", "lively", "lucid", "mellow", "nimble", "placid",
	"quiet", "rapid", "serene", "sturdy", "subtle", "brave", "tidy", "vivid",
	"warm", "wise", "bold", "clear", "fresh", "grand", "noble", "pure",
	"quick", "silent", "smooth", "steady", "stout", "tranquil", "true", "valiant",
}

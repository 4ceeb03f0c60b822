package constants

// TagNamespace - непересекающийся диапазон идентификаторов RFID-меток.
type TagNamespace string

const (
	TagNamespaceEquipment TagNamespace = "equipment"
	TagNamespaceStudent   TagNamespace = "student"
)

// TagRange - включительный диапазон [Min, Max].
type TagRange struct {
	Min int
	Max int
}

func (r TagRange) Size() int { return r.Max - r.Min + 1 }

func (r TagRange) Contains(id int) bool { return id >= r.Min && id <= r.Max }

var tagRanges = map[TagNamespace]TagRange{
	TagNamespaceEquipment: {Min: 0, Max: 4095},
	TagNamespaceStudent:   {Min: 4096, Max: 8191},
}

// Range возвращает диапазон пространства имен; ok=false для неизвестного.
func (ns TagNamespace) Range() (TagRange, bool) {
	r, ok := tagRanges[ns]
	return r, ok
}

package xref

// Bar identifiers are unique within one Foo.
type Foo struct {
	Bars []Bar `xref:"bars"`
}

func (Foo) IdentifierScope() Key { return RootKey }

type Bar struct {
	ID    ID[Bar]   `xref:"id,new"`
	After []ID[Bar] `xref:"after"`
}

func (Bar) IdentifierScope() Key { return KeyOf[Foo]() }

// Stage identifiers are global to the run; Step identifiers are unique within
// one Stage and persisted so other subtrees can reach them.
type Stage struct {
	ID    ID[Stage]   `xref:"id,new"`
	Label Name[Stage] `xref:"label"`
	Steps []Step      `xref:"steps"`
}

func (Stage) IdentifierScope() Key { return RootKey }

type Step struct {
	ID   ID[Step]   `xref:"id,new,track"`
	Name Name[Step] `xref:"name"`
}

func (Step) IdentifierScope() Key { return KeyOf[Stage]() }

// Trigger points at a step of an already closed stage through an import.
type Trigger struct {
	Stage ID[Stage] `xref:"stage,import=Step"`
	Step  ID[Step]  `xref:"step"`
}

type Pipeline struct {
	Stages   []Stage   `xref:"stages"`
	Triggers []Trigger `xref:"triggers"`
}

// Twin declares twice on one object.
type Twin struct {
	A ID[Twin] `xref:"a,new"`
	B ID[Twin] `xref:"b,new"`
}

func (Twin) IdentifierScope() Key { return RootKey }

// Loose is declared without tracking.
type Loose struct {
	ID ID[Loose] `xref:"id,new"`
}

func (Loose) IdentifierScope() Key { return KeyOf[Stage]() }

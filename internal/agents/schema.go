// Schema domain agent. Trivial in the original ChakraCore protocol handler
// (Debugger.cpp registers a Schema agent purely to answer getDomains) and
// kept here for the same reason - see SPEC_FULL.md's supplemented features.
package agents

type Schema struct{}

func NewSchema() *Schema { return &Schema{} }

func (s *Schema) Register(disp *Dispatcher) {
	disp.Register("Schema.getDomains", wrapNoParams(s.GetDomains))
}

func (s *Schema) GetDomains() (interface{}, error) {
	domains := []map[string]string{
		{"name": "Debugger", "version": "1.2"},
		{"name": "Runtime", "version": "1.2"},
		{"name": "Console", "version": "1.2"},
		{"name": "Schema", "version": "1.2"},
	}
	return map[string]interface{}{"domains": domains}, nil
}

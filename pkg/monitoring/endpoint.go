package monitoring

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/telekom/das-schiff-policy-router/pkg/ipaddr"
	"github.com/telekom/das-schiff-policy-router/pkg/routingtable"
	"github.com/telekom/das-schiff-policy-router/pkg/vrf"
)

// Endpoint serves diagnostic views of the policy routing tables.
type Endpoint struct {
	manager *vrf.Manager
}

// NewEndpoint creates a new endpoint over the given VRF manager.
func NewEndpoint(manager *vrf.Manager) *Endpoint {
	return &Endpoint{manager: manager}
}

// CreateMux returns a mux with all diagnostic routes registered.
func (e *Endpoint) CreateMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/show/route", e.ShowRoute)
	mux.HandleFunc("/simulate", e.Simulate)
	return mux
}

// ShowRoute renders the routing table of one VRF (?vrf=<id>) or of all
// VRFs as text.
func (e *Endpoint) ShowRoute(w http.ResponseWriter, r *http.Request) {
	vrfParam := r.URL.Query().Get("vrf")
	if vrfParam == "" || vrfParam == "all" {
		for _, vrfID := range e.manager.VrfIDs() {
			e.writeTable(w, vrfID)
		}
		return
	}

	vrfID, err := strconv.ParseUint(vrfParam, 10, 32)
	if err != nil {
		http.Error(w, "invalid vrf id: "+vrfParam, http.StatusBadRequest)
		return
	}
	if _, err := e.manager.Table(uint32(vrfID)); err != nil {
		http.Error(w, "unknown vrf id: "+vrfParam, http.StatusNotFound)
		return
	}
	e.writeTable(w, uint32(vrfID))
}

func (e *Endpoint) writeTable(w http.ResponseWriter, vrfID uint32) {
	table, err := e.manager.Table(vrfID)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "VRF %d\n", vrfID)
	table.WriteTable(w)
}

type simulatedRoute struct {
	NextHop       string `json:"nextHop"`
	Priority      uint32 `json:"priority"`
	AdminDistance uint8  `json:"adminDistance"`
	LocalPref     uint32 `json:"localPref"`
	MED           uint32 `json:"med"`
	DSCP          uint8  `json:"dscp"`
}

type simulationResponse struct {
	Routes          []simulatedRoute `json:"routes"`
	EqualCostPaths  int              `json:"equalCostPaths"`
	SelectedNextHop string           `json:"selectedNextHop,omitempty"`
}

// Simulate looks up one packet described by query parameters
// (vrf, src, dst, srcPort, dstPort, protocol, tos, flowLabel) and
// returns the ranked routes and the flow-hash selected path as JSON.
func (e *Endpoint) Simulate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	vrfID, err := strconv.ParseUint(query.Get("vrf"), 10, 32)
	if err != nil {
		http.Error(w, "invalid vrf id: "+query.Get("vrf"), http.StatusBadRequest)
		return
	}

	pkt := routingtable.PacketInfo{}
	if pkt.DstIP, err = ipaddr.ParseAddress(query.Get("dst")); err != nil {
		http.Error(w, "invalid destination address: "+query.Get("dst"), http.StatusBadRequest)
		return
	}
	if src := query.Get("src"); src != "" {
		if pkt.SrcIP, err = ipaddr.ParseAddress(src); err != nil {
			http.Error(w, "invalid source address: "+src, http.StatusBadRequest)
			return
		}
	}
	srcPort, _ := strconv.ParseUint(query.Get("srcPort"), 10, 16)
	dstPort, _ := strconv.ParseUint(query.Get("dstPort"), 10, 16)
	protocol, _ := strconv.ParseUint(query.Get("protocol"), 10, 8)
	tos, _ := strconv.ParseUint(query.Get("tos"), 10, 8)
	flowLabel, _ := strconv.ParseUint(query.Get("flowLabel"), 10, 32)
	pkt.SrcPort = uint16(srcPort)
	pkt.DstPort = uint16(dstPort)
	pkt.Protocol = uint8(protocol)
	pkt.ToS = uint8(tos)
	pkt.FlowLabel = uint32(flowLabel)

	response := simulationResponse{}
	for _, entry := range e.manager.Lookup(uint32(vrfID), pkt) {
		response.Routes = append(response.Routes, simulatedRoute{
			NextHop:       ipaddr.FormatAddress(entry.Attrs.NextHop),
			Priority:      entry.Rule.Priority,
			AdminDistance: entry.Attrs.AdminDistance,
			LocalPref:     entry.Attrs.LocalPref,
			MED:           entry.Attrs.MED,
			DSCP:          entry.Attrs.DSCP,
		})
	}
	response.EqualCostPaths = len(e.manager.GetEqualCostPaths(uint32(vrfID), pkt))
	if selected, ok := e.manager.SelectEcmpPathUsingFlowHash(uint32(vrfID), pkt); ok {
		response.SelectedNextHop = ipaddr.FormatAddress(selected.NextHop)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(&response); err != nil {
		http.Error(w, "failed to write response: "+err.Error(), http.StatusInternalServerError)
	}
}

package report

import (
	"net/url"
	"sort"

	"github.com/travelearn/tne-admin/internal/backend"
)

// Report names served by the catalog.
const (
	Sender               = "sender"
	Traveler             = "traveler"
	Consignment          = "consignment"
	BusinessIntelligence = "business-intelligence"
	TravelDetails        = "travel-details"
	TravelSummary        = "travel-summary"
	Drivers              = "drivers"
	Admins               = "admins"
	Transactions         = "transactions"
)

var consignmentStatuses = []string{"Pending", "Accepted", "In Progress", "Completed", "Rejected"}

// Catalog indexes the report definitions by name.
type Catalog struct {
	defs map[string]*Definition
	// reports lists the screens shown under Reports in the sidebar.
	reports []string
}

// NewCatalog returns the catalog of every screen backed by a report table.
func NewCatalog() *Catalog {
	c := &Catalog{defs: make(map[string]*Definition)}
	for _, def := range []*Definition{
		senderDefinition(),
		travelerDefinition(),
		consignmentDefinition(),
		businessDefinition(),
		travelDetailsDefinition(),
		travelSummaryDefinition(),
		driversDefinition(),
		adminsDefinition(),
		transactionsDefinition(),
	} {
		c.defs[def.Name] = def
	}
	c.reports = []string{Sender, Traveler, Consignment, BusinessIntelligence, TravelDetails}
	return c
}

// Get returns the definition called name.
func (c *Catalog) Get(name string) (*Definition, bool) {
	def, ok := c.defs[name]
	return def, ok
}

// MustGet panics when name is unknown; used for wiring fixed screens.
func (c *Catalog) MustGet(name string) *Definition {
	def, ok := c.defs[name]
	if !ok {
		panic("report: unknown definition " + name)
	}
	return def
}

// Reports returns the report-family definitions in sidebar order.
func (c *Catalog) Reports() []*Definition {
	out := make([]*Definition, 0, len(c.reports))
	for _, name := range c.reports {
		out = append(out, c.defs[name])
	}
	return out
}

// Names lists every definition name, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.defs))
	for name := range c.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func text(key, label string) Column {
	return Column{Key: key, Label: label, Kind: KindText, Export: true}
}

func status(key, label string) Column {
	return Column{Key: key, Label: label, Kind: KindStatus, Export: true}
}

func integer(key, label string) Column {
	return Column{Key: key, Label: label, Kind: KindInteger, Export: true}
}

func currency(key, label string) Column {
	return Column{Key: key, Label: label, Kind: KindCurrency, Export: true}
}

func date(key, label string) Column {
	return Column{Key: key, Label: label, Kind: KindDate, Export: true}
}

func participantColumns(idKey, idLabel, nestedKey, nestedLabel string) []Column {
	return []Column{
		text(idKey, idLabel),
		text("name", "Name"),
		text("phoneNo", "Phone No"),
		text("address", "Address"),
		text("state", "State"),
		integer("noOfConsignment", "No of Consignment"),
		currency("totalAmount", "Total Amount"),
		{Key: nestedKey, Label: nestedLabel, Kind: KindDrilldown},
		status("statusOfConsignment", "Status of Consignment"),
		status("payment", "Payment"),
		{Key: "averageRating", Label: "Rating", Kind: KindRating, Export: true},
	}
}

func senderDefinition() *Definition {
	return &Definition{
		Name:          Sender,
		Title:         "Sender Report",
		Source:        reportSource(backend.ReportSender),
		Columns:       participantColumns("senderId", "Sender Id", "senderConsignment", "Sender's Consignment"),
		KeyField:      "senderId",
		SearchFields:  []string{"senderId", "name", "phoneNo", "address", "state"},
		StatusField:   "statusOfConsignment",
		StatusOptions: consignmentStatuses,
		PerPage:       10,
		ErrorMessage:  "Failed to fetch sender data",
		EmptyMessage:  "No sender data available",
		ExportBase:    "sender_report",
		Drilldown: &Drilldown{
			Field: "senderConsignment",
			Title: "Sender's Consignment",
			Columns: []Column{
				text("consignmentId", "Consignment ID"),
				text("description", "Description"),
				status("status", "Status"),
				text("distance", "Distance"),
				status("category", "Category"),
				currency("earning", "Earning"),
				text("weight", "Weight"),
				text("dimensionalweight", "Dimensional Weight"),
			},
			EmptyMessage: "No consignments found",
		},
	}
}

func travelerDefinition() *Definition {
	return &Definition{
		Name:          Traveler,
		Title:         "Traveler Report",
		Source:        reportSource(backend.ReportTraveler),
		Columns:       participantColumns("travelerId", "Traveler Id", "travelerConsignment", "Traveler's Consignment"),
		KeyField:      "travelerId",
		SearchFields:  []string{"travelerId", "name", "phoneNo", "address", "state"},
		StatusField:   "statusOfConsignment",
		StatusOptions: consignmentStatuses,
		PerPage:       10,
		ErrorMessage:  "Failed to fetch traveler data",
		EmptyMessage:  "No traveler data available",
		ExportBase:    "traveler_report",
		Drilldown: &Drilldown{
			Field: "travelerConsignment",
			Title: "Traveler's Consignment",
			Columns: []Column{
				text("consignmentId", "Consignment ID"),
				text("description", "Description"),
				status("status", "Status"),
				text("distance", "Distance"),
				status("category", "Category"),
				currency("expectedEarning", "Expected Earning"),
				text("dimensionalweight", "Dimensional Weight"),
			},
			EmptyMessage: "No consignments found",
		},
	}
}

func consignmentDefinition() *Definition {
	return &Definition{
		Name:   Consignment,
		Title:  "Consignment Consolidated Report",
		Source: reportSource(backend.ReportConsignment),
		Columns: []Column{
			text("consignmentId", "Consignment ID"),
			status("consignmentStatus", "Status"),
			text("senderId", "Sender ID"),
			text("senderName", "Sender Name"),
			text("senderMobileNo", "Sender Mobile"),
			text("senderAddress", "Sender Address"),
			currency("totalAmountSender", "Total Amount"),
			status("paymentStatus", "Payment Status"),
			text("travelerId", "Traveler ID"),
			date("travelerAcceptanceDate", "Acceptance Date"),
			text("travelerName", "Traveler Name"),
			text("travelerMobileNo", "Traveler Mobile"),
			text("travelerAddress", "Traveler Address"),
			currency("amountToBePaidToTraveler", "Amount to Traveler"),
			status("travelerPaymentStatus", "Traveler Payment"),
			text("travelMode", "Travel Mode"),
			date("travelStartDate", "Start Date"),
			date("travelEndDate", "End Date"),
			text("recepientName", "Recipient Name"),
			text("recepientAddress", "Recipient Address"),
			text("recepientPhoneNo", "Recipient Phone"),
			date("receivedDate", "Received Date"),
			currency("tneAmount", "T&E Amount"),
			currency("taxComponent", "Tax Component"),
		},
		KeyField:      "consignmentId",
		SearchFields:  []string{"consignmentId", "senderName", "travelerName", "recepientName"},
		StatusField:   "consignmentStatus",
		StatusOptions: consignmentStatuses,
		PerPage:       10,
		ErrorMessage:  "Failed to fetch consignment data",
		EmptyMessage:  "No consignment data available",
		ExportBase:    "consignment_consolidated_report",
	}
}

func businessDefinition() *Definition {
	return &Definition{
		Name:   BusinessIntelligence,
		Title:  "Business Intelligence Report",
		Source: reportSource(backend.ReportBusiness),
		Columns: []Column{
			text("period", "Period"),
			text("state", "State"),
			integer("totalConsignments", "Total Consignments"),
			integer("deliveredConsignments", "Delivered"),
			integer("activeSenders", "Active Senders"),
			integer("activeTravelers", "Active Travelers"),
			currency("totalRevenue", "Total Revenue"),
			currency("travelerPayout", "Traveler Payout"),
			currency("tneAmount", "T&E Amount"),
			currency("taxComponent", "Tax Component"),
		},
		KeyField:     "period",
		SearchFields: []string{"period", "state"},
		PerPage:      10,
		ErrorMessage: "Failed to fetch business intelligence data",
		EmptyMessage: "No business intelligence data available",
		ExportBase:   "business_intelligence_report",
	}
}

func travelDetailsDefinition() *Definition {
	return &Definition{
		Name:   TravelDetails,
		Title:  "Travel Details Report",
		Source: reportSource(backend.ReportTravel),
		Columns: []Column{
			text("travelId", "Travel ID"),
			text("travelerName", "Traveler Name"),
			text("travelerMobileNo", "Traveler Mobile"),
			text("travelMode", "Travel Mode"),
			text("travelmode_number", "Vehicle No"),
			text("pickup", "Pick up"),
			text("drop", "Drop"),
			date("expectedStartTime", "Start Time"),
			date("expectedendtime", "End Time"),
			status("status", "Status"),
			integer("consignmentCount", "Consignments"),
			{Key: "distance", Label: "Distance", Kind: KindDistance, Export: true},
			currency("expectedEarning", "Expected Earning"),
		},
		KeyField:      "travelId",
		SearchFields:  []string{"travelId", "travelerName", "travelerMobileNo", "pickup", "drop"},
		StatusField:   "status",
		StatusOptions: []string{"Pending", "Started", "Completed", "Expired"},
		PerPage:       10,
		ErrorMessage:  "Failed to fetch travel details",
		EmptyMessage:  "No travel details available",
		ExportBase:    "travel_details_report",
	}
}

func travelSummaryDefinition() *Definition {
	return &Definition{
		Name:   TravelSummary,
		Title:  "Logistics Dashboard",
		Source: travelSummarySource,
		Columns: []Column{
			text("travelId", "Travel ID"),
			text("username", "Traveller"),
			text("duration", "Time"),
			currency("expectedearning", "Amount"),
			status("status", "Status"),
			text("Leavinglocation", "Pick up"),
			text("Goinglocation", "Drop"),
			{Key: "distance", Label: "Distance", Kind: KindDistance, Export: true},
		},
		KeyField:      "_id",
		SearchMode:    SearchServer,
		StatusField:   "status",
		StatusOptions: []string{"pending", "accepted", "started", "completed", "expired"},
		Params: []Param{
			{Name: "driverName", Label: "Driver name", Type: "text"},
			{Name: "date", Label: "Date", Type: "date"},
		},
		PerPage:      15,
		ErrorMessage: "Failed to fetch travel summaries",
		EmptyMessage: "No travel data available",
		ExportBase:   "logistics_report",
	}
}

func driversDefinition() *Definition {
	return &Definition{
		Name:   Drivers,
		Title:  "Driver Management",
		Source: driversSource,
		Columns: []Column{
			text("fullName", "User"),
			text("phoneNumber", "Phone Number"),
			text("email", "Email"),
			currency("totalEarnings", "Earning"),
			{Key: "totalDistance", Label: "Distance", Kind: KindDistance, Export: true},
		},
		KeyField:     "_id",
		SearchMode:   SearchServer,
		PerPage:      5,
		ErrorMessage: "Failed to fetch drivers",
		EmptyMessage: "No drivers found",
		ExportBase:   "drivers_report",
		Link: func(row Row) string {
			id, _ := row.Raw("_id")
			phone, _ := row.Raw("phoneNumber")
			if id == "" {
				return ""
			}
			return "/drivers/" + url.PathEscape(id) + "?phone=" + url.QueryEscape(phone)
		},
	}
}

func adminsDefinition() *Definition {
	return &Definition{
		Name:   Admins,
		Title:  "Admin Management",
		Source: adminsSource,
		Columns: []Column{
			text("name", "Admin Name"),
			status("role", "Role"),
			text("phoneNumber", "Phone Number"),
			text("email", "Email"),
		},
		KeyField:     "_id",
		SearchMode:   SearchServer,
		PerPage:      10,
		ErrorMessage: "Failed to fetch admins",
		EmptyMessage: "No admins found",
		ExportBase:   "admins_report",
		Link: func(row Row) string {
			id, _ := row.Raw("_id")
			if id == "" {
				return ""
			}
			return "/admins/" + url.PathEscape(id)
		},
	}
}

func transactionsDefinition() *Definition {
	return &Definition{
		Name:   Transactions,
		Title:  "Recent Transactions",
		Source: transactionsSource,
		Columns: []Column{
			text("customerName", "Customer Name"),
			text("transactionId", "Transaction ID"),
			text("paymentMode", "Payment Mode"),
			currency("amount", "Amount"),
		},
		KeyField:     "transactionId",
		SearchMode:   SearchServer,
		PerPage:      10,
		ErrorMessage: "Failed to fetch transactions",
		EmptyMessage: "No transactions found",
		ExportBase:   "transactions_report",
	}
}

package domain

// RequestStatus enumerates request and requested-item states.
type RequestStatus string

const (
	RequestStatusAccept     RequestStatus = "Accept"
	RequestStatusReleased   RequestStatus = "Released"
	RequestStatusOutOfStock RequestStatus = "Out of Stock"
	RequestStatusPending    RequestStatus = "Pending"
	RequestStatusRejected   RequestStatus = "Rejected"
	RequestStatusReturn     RequestStatus = "Return"
)

// ReleaseStatus enumerates the receipt workflow of a single unit.
type ReleaseStatus string

const (
	ReleaseStatusReleased ReleaseStatus = "Released"
	ReleaseStatusAccept   ReleaseStatus = "Accept"
	ReleaseStatusPending  ReleaseStatus = "Pending"
	ReleaseStatusReturned ReleaseStatus = "Returned"
)

// ReturnStatus enumerates return request states.
type ReturnStatus string

const (
	ReturnStatusReturn    ReturnStatus = "Return"
	ReturnStatusPending   ReturnStatus = "Pending"
	ReturnStatusCompleted ReturnStatus = "Completed"
)

// RequestedItem is one line of an inventory request.
type RequestedItem struct {
	ID       string        `json:"id"`
	ItemCode string        `json:"itemCode"`
	ItemName string        `json:"itemName"`
	Quantity int           `json:"quantity"`
	Issued   int           `json:"issued"`
	Status   RequestStatus `json:"status"`
	Remarks  string        `json:"remarks"`
}

// InventoryRequest asks a store keeper for parts. Status is set at
// creation and is not derived from item statuses.
type InventoryRequest struct {
	ID            string          `json:"id"`
	RequestNumber string          `json:"requestNumber"`
	RequestedTo   string          `json:"requestedTo"`
	RequestedBy   string          `json:"requestedBy"`
	RequestedOn   string          `json:"requestedOn"`
	Items         []RequestedItem `json:"items"`
	Status        RequestStatus   `json:"status"`
	ApprovedAt    string          `json:"approvedAt,omitempty"`
	Remarks       string          `json:"remarks,omitempty"`
}

// InventoryReleaseItem is a physical unit moving through receipt.
type InventoryReleaseItem struct {
	ID            string        `json:"id"`
	RequestNumber string        `json:"requestNumber"`
	ItemCode      string        `json:"itemCode"`
	ItemName      string        `json:"itemName"`
	Model         string        `json:"model"`
	Vendor        string        `json:"vendor"`
	Category      string        `json:"category"`
	SubCategory   string        `json:"subCategory"`
	Barcode       string        `json:"barcode"`
	Issued        int           `json:"issued"`
	Remarks       string        `json:"remarks"`
	Status        ReleaseStatus `json:"status"`
}

// InventoryReturn is a return request; read-only in the store.
type InventoryReturn struct {
	ID           string          `json:"id"`
	ReturnNumber string          `json:"returnNumber"`
	RequestedBy  string          `json:"requestedBy"`
	RequestedTo  string          `json:"requestedTo"`
	Status       ReturnStatus    `json:"status"`
	Created      string          `json:"created"`
	ItemCount    int             `json:"itemCount"`
	Remarks      string          `json:"remarks"`
	Items        []RequestedItem `json:"items"`
}

// InventoryCatalogItem is orderable reference data.
type InventoryCatalogItem struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Model     string `json:"model"`
	Vendor    string `json:"vendor"`
	Available int    `json:"available"`
}

// Package phpstd lists the classes and interfaces the PHP runtime and SPL
// provide without any source file.
package phpstd

import "strings"

// InterfaceParents maps built-in interfaces to the interfaces they extend.
var InterfaceParents = map[string][]string{
	"Traversable":             nil,
	"Iterator":                {"Traversable"},
	"IteratorAggregate":       {"Traversable"},
	"ArrayAccess":             nil,
	"Countable":               nil,
	"Serializable":            nil,
	"Stringable":              nil,
	"JsonSerializable":        nil,
	"Throwable":               {"Stringable"},
	"UnitEnum":                nil,
	"BackedEnum":              {"UnitEnum"},
	"DateTimeInterface":       nil,
	"OuterIterator":           {"Iterator"},
	"RecursiveIterator":       {"Iterator"},
	"SeekableIterator":        {"Iterator"},
	"SplObserver":             nil,
	"SplSubject":              nil,
	"SessionHandlerInterface": nil,
}

// ClassInterfaces maps built-in classes to the interfaces they implement directly.
var ClassInterfaces = map[string][]string{
	"stdClass":                   nil,
	"Closure":                    nil,
	"Generator":                  {"Iterator"},
	"WeakMap":                    {"ArrayAccess", "Countable", "IteratorAggregate"},
	"Exception":                  {"Throwable"},
	"ErrorException":             {"Throwable"},
	"Error":                      {"Throwable"},
	"TypeError":                  {"Throwable"},
	"ValueError":                 {"Throwable"},
	"ArithmeticError":            {"Throwable"},
	"DivisionByZeroError":        {"Throwable"},
	"ArgumentCountError":         {"Throwable"},
	"JsonException":              {"Throwable"},
	"LogicException":             {"Throwable"},
	"BadFunctionCallException":   {"Throwable"},
	"BadMethodCallException":     {"Throwable"},
	"DomainException":            {"Throwable"},
	"InvalidArgumentException":   {"Throwable"},
	"LengthException":            {"Throwable"},
	"OutOfRangeException":        {"Throwable"},
	"RuntimeException":           {"Throwable"},
	"OutOfBoundsException":       {"Throwable"},
	"OverflowException":          {"Throwable"},
	"RangeException":             {"Throwable"},
	"UnderflowException":         {"Throwable"},
	"UnexpectedValueException":   {"Throwable"},
	"DateTime":                   {"DateTimeInterface"},
	"DateTimeImmutable":          {"DateTimeInterface"},
	"DateTimeZone":               nil,
	"DateInterval":               nil,
	"DatePeriod":                 {"IteratorAggregate"},
	"ArrayObject":                {"IteratorAggregate", "ArrayAccess", "Serializable", "Countable"},
	"ArrayIterator":              {"SeekableIterator", "ArrayAccess", "Serializable", "Countable"},
	"RecursiveArrayIterator":     {"RecursiveIterator", "SeekableIterator", "ArrayAccess", "Serializable", "Countable"},
	"IteratorIterator":           {"OuterIterator"},
	"FilterIterator":             {"OuterIterator"},
	"CallbackFilterIterator":     {"OuterIterator"},
	"LimitIterator":              {"OuterIterator"},
	"CachingIterator":            {"OuterIterator", "ArrayAccess", "Countable", "Stringable"},
	"NoRewindIterator":           {"OuterIterator"},
	"AppendIterator":             {"OuterIterator"},
	"InfiniteIterator":           {"OuterIterator"},
	"RegexIterator":              {"OuterIterator"},
	"EmptyIterator":              {"Iterator"},
	"MultipleIterator":           {"Iterator"},
	"RecursiveIteratorIterator":  {"OuterIterator"},
	"DirectoryIterator":          {"SeekableIterator"},
	"FilesystemIterator":         {"SeekableIterator"},
	"RecursiveDirectoryIterator": {"RecursiveIterator", "SeekableIterator"},
	"GlobIterator":               {"SeekableIterator", "Countable"},
	"SplFileInfo":                {"Stringable"},
	"SplFileObject":              {"RecursiveIterator", "SeekableIterator"},
	"SplTempFileObject":          {"RecursiveIterator", "SeekableIterator"},
	"SplDoublyLinkedList":        {"Iterator", "Countable", "ArrayAccess", "Serializable"},
	"SplQueue":                   {"Iterator", "Countable", "ArrayAccess", "Serializable"},
	"SplStack":                   {"Iterator", "Countable", "ArrayAccess", "Serializable"},
	"SplHeap":                    {"Iterator", "Countable"},
	"SplMinHeap":                 {"Iterator", "Countable"},
	"SplMaxHeap":                 {"Iterator", "Countable"},
	"SplPriorityQueue":           {"Iterator", "Countable"},
	"SplFixedArray":              {"IteratorAggregate", "ArrayAccess", "Countable", "JsonSerializable"},
	"SplObjectStorage":           {"Countable", "Iterator", "Serializable", "ArrayAccess"},
	"ReflectionClass":            {"Stringable"},
	"PDO":                        nil,
	"PDOStatement":               {"IteratorAggregate"},
	"SimpleXMLElement":           {"Stringable", "Countable", "RecursiveIterator"},
	"DOMDocument":                nil,
	"DOMElement":                 nil,
}

// AbstractClasses lists built-in classes that cannot be instantiated.
var AbstractClasses = map[string]bool{
	"SplHeap":        true,
	"FilterIterator": true,
	"Closure":        true,
	"Generator":      true,
}

// splNames is what PHP's spl_classes() reports: the SPL classes, interfaces and exceptions.
var splNames = []string{
	"AppendIterator", "ArrayIterator", "ArrayObject", "BadFunctionCallException",
	"BadMethodCallException", "CachingIterator", "CallbackFilterIterator",
	"DirectoryIterator", "DomainException", "EmptyIterator", "FilesystemIterator",
	"FilterIterator", "GlobIterator", "InfiniteIterator", "InvalidArgumentException",
	"IteratorIterator", "LengthException", "LimitIterator", "LogicException",
	"MultipleIterator", "NoRewindIterator", "OuterIterator", "OutOfBoundsException",
	"OutOfRangeException", "OverflowException", "RangeException",
	"RecursiveArrayIterator", "RecursiveCachingIterator", "RecursiveCallbackFilterIterator",
	"RecursiveDirectoryIterator", "RecursiveFilterIterator", "RecursiveIterator",
	"RecursiveIteratorIterator", "RecursiveRegexIterator", "RecursiveTreeIterator",
	"RegexIterator", "RuntimeException", "SeekableIterator", "SplDoublyLinkedList",
	"SplFileInfo", "SplFileObject", "SplFixedArray", "SplHeap", "SplMinHeap",
	"SplMaxHeap", "SplObjectStorage", "SplObserver", "SplPriorityQueue", "SplQueue",
	"SplStack", "SplSubject", "SplTempFileObject", "UnderflowException",
	"UnexpectedValueException",
}

// SPL returns a copy of the SPL class and interface names.
func SPL() []string {
	out := make([]string, len(splNames))
	copy(out, splNames)
	return out
}

// IsInterface reports whether name is a built-in interface (case-insensitive).
func IsInterface(name string) bool {
	_, ok := lookup(InterfaceParents, name)
	return ok
}

// IsClass reports whether name is a built-in class (case-insensitive).
func IsClass(name string) bool {
	_, ok := lookup(ClassInterfaces, name)
	return ok
}

// Canonical returns the declared casing of a built-in name, or "" when unknown.
func Canonical(name string) string {
	if key, ok := lookup(InterfaceParents, name); ok {
		return key
	}
	if key, ok := lookup(ClassInterfaces, name); ok {
		return key
	}
	return ""
}

func lookup(m map[string][]string, name string) (string, bool) {
	name = strings.TrimPrefix(name, `\`)
	if _, ok := m[name]; ok {
		return name, true
	}
	for key := range m {
		if strings.EqualFold(key, name) {
			return key, true
		}
	}
	return "", false
}
